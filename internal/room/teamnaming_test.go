package room

import (
	"testing"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

func enterTeamNamingForTest(t *testing.T, ra *RoomActor, hostID string, mode types.GameMode) {
	t.Helper()
	call(ra, func() { ra.HandleStartGame(hostID) })
	call(ra, func() { ra.onTeamRevealTimer() })
	if mode == types.ModeClassic {
		call(ra, func() { ra.onCaptainVoteTimer() })
	}
	call(ra, func() {
		if ra.room.Phase != PhaseTeamNaming {
			t.Fatalf("expected team-naming phase, got %q", ra.room.Phase)
		}
	})
}

func TestTeamNamingClassicOnlyCaptainMayName(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeClassic, 5, 2)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	bobID, _ := joinPlayer(t, ra, "Bob")
	enterTeamNamingForTest(t, ra, hostID, types.ModeClassic)

	var teamOfAlice types.Team
	var aliceIsCaptain bool
	call(ra, func() {
		teamOfAlice = *ra.room.Players[aliceID].Team
		aliceIsCaptain = ra.room.Players[aliceID].IsCaptain
	})

	call(ra, func() { ra.HandleSetTeamName(aliceID, "The Challengers") })
	call(ra, func() {
		named := ra.room.Teams[teamOfAlice].Name != ""
		if aliceIsCaptain && !named {
			t.Fatalf("alice is captain, her team name should have been accepted")
		}
		if !aliceIsCaptain && named {
			t.Fatalf("a non-captain must not be able to name the team")
		}
	})
	_ = bobID
}

func TestTeamNamingChaosAnyMemberMayName(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeChaos, 5, 2)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	joinPlayer(t, ra, "Bob")
	enterTeamNamingForTest(t, ra, hostID, types.ModeChaos)

	var teamOfAlice types.Team
	call(ra, func() { teamOfAlice = *ra.room.Players[aliceID].Team })
	call(ra, func() { ra.HandleSetTeamName(aliceID, "Quiz Raiders") })
	call(ra, func() {
		if ra.room.Teams[teamOfAlice].Name != "Quiz Raiders" {
			t.Fatalf("any chaos team member should be able to name their team")
		}
	})
}

func TestTeamNamingFinalizesOnceBothTeamsReady(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeChaos, 5, 2)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	bobID, _ := joinPlayer(t, ra, "Bob")
	enterTeamNamingForTest(t, ra, hostID, types.ModeChaos)

	var teamA, teamB types.Team
	var idA, idB string
	call(ra, func() {
		for _, id := range []string{aliceID, bobID} {
			if *ra.room.Players[id].Team == types.TeamA {
				teamA, idA = types.TeamA, id
			} else {
				teamB, idB = types.TeamB, id
			}
		}
	})
	_ = teamA
	_ = teamB

	call(ra, func() { ra.HandleSetTeamName(idA, "Alpha Squad") })
	call(ra, func() { ra.HandleSetTeamName(idB, "Beta Squad") })

	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("team naming should finalize into question once both teams are ready, got %q", ra.room.Phase)
		}
		if ra.room.CurrentQuestionIndex != 0 {
			t.Fatalf("expected question index reset to 0, got %d", ra.room.CurrentQuestionIndex)
		}
	})
}

func TestRandomTeamNameDoesNotReuseNames(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeChaos, 5, 9)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	bobID, _ := joinPlayer(t, ra, "Bob")
	enterTeamNamingForTest(t, ra, hostID, types.ModeChaos)

	call(ra, func() { ra.HandleRandomTeamName(aliceID) })
	var usedFirst string
	call(ra, func() {
		for name := range ra.room.UsedTeamNames {
			usedFirst = name
		}
		if usedFirst == "" {
			t.Fatalf("random-team-name must record the picked name as used")
		}
	})

	call(ra, func() { ra.HandleRandomTeamName(bobID) })
	call(ra, func() {
		a, b := ra.room.Teams[types.TeamA].Name, ra.room.Teams[types.TeamB].Name
		if a == "" || b == "" || a == b {
			t.Fatalf("the second random pick must not reuse the first team's name, got %q and %q", a, b)
		}
	})
}
