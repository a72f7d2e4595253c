package room

import (
	"testing"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// P6: the host and spectators see everything, regardless of mode/phase.
func TestCanSeeHostAndSpectatorAlwaysSeeEverything(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeClassic, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	call(ra, func() {
		r := ra.room
		r.Phase = PhaseQuestion
		msg := types.ChatMessage{Visibility: string(types.TeamA)}
		if !CanSee(msg, r, r.Players[hostID]) {
			t.Fatalf("host must see every message regardless of visibility")
		}
	})
}

func TestCanSeeClassicDuringQuestionRestrictsToActiveTeam(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeClassic, 5, 1)
	joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() {
		r := ra.room
		teamA := types.TeamA
		teamB := types.TeamB
		r.Players[aliceID].Team = &teamA
		r.Phase = PhaseQuestion
		r.ActiveTeam = types.TeamA

		teamAMsg := types.ChatMessage{Visibility: string(types.TeamA)}
		if !CanSee(teamAMsg, r, r.Players[aliceID]) {
			t.Fatalf("a team A member should see a team A message while team A is active")
		}

		r.ActiveTeam = types.TeamB
		if CanSee(teamAMsg, r, r.Players[aliceID]) {
			t.Fatalf("classic restricts chat visibility to the currently active team")
		}
		_ = teamB
	})
}

func TestCanSeeFFADuringQuestionRequiresSubmission(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() {
		r := ra.room
		r.Phase = PhaseQuestion
		allMsg := types.ChatMessage{Visibility: "all"}
		if CanSee(allMsg, r, r.Players[aliceID]) {
			t.Fatalf("an ffa player who hasn't submitted yet must not see chat during question")
		}
		r.Submissions[aliceID] = types.Submission{}
		if !CanSee(allMsg, r, r.Players[aliceID]) {
			t.Fatalf("once submitted, an ffa player should see all-visibility chat")
		}
	})
}

func TestCanSeeHostVisibilityNeverShownToPlayers(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() {
		r := ra.room
		hostMsg := types.ChatMessage{Visibility: "host"}
		if CanSee(hostMsg, r, r.Players[aliceID]) {
			t.Fatalf("a host-only message must never be visible to a regular player")
		}
	})
}

func TestHandleSendChatClassicScopesToSenderTeamDuringQuestion(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeClassic, 5, 1)
	joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() {
		teamA := types.TeamA
		ra.room.Players[aliceID].Team = &teamA
		ra.room.Phase = PhaseQuestion
		ra.room.ActiveTeam = types.TeamA
		ra.room.Teams[types.TeamA].Captain = aliceID
	})

	call(ra, func() { ra.HandleSendChat(aliceID, "go team!") })
	call(ra, func() {
		last := ra.room.Chat[len(ra.room.Chat)-1]
		if last.Visibility != string(types.TeamA) {
			t.Fatalf("expected team-scoped chat visibility during question, got %q", last.Visibility)
		}
	})
}

func TestModerateChatMessageDisqualifiesAfterThreeStrikes(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")

	for i := 0; i < ChatStrikesToDisqualify; i++ {
		call(ra, func() { ra.HandleSendChat(aliceID, "message") })
		var msgID string
		call(ra, func() { msgID = ra.room.Chat[len(ra.room.Chat)-1].ID })
		call(ra, func() { ra.HandleModerateChatMessage(hostID, msgID) })
	}

	call(ra, func() {
		if !ra.room.Players[aliceID].IsSpectator {
			t.Fatalf("three moderation strikes must disqualify the sender (make them a spectator)")
		}
	})
}

func TestModerateChatMessageCannotRemoveSystemMessages(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	var sysID string
	call(ra, func() {
		ra.room.appendChat(types.ChatMessage{ID: "sys-1", Kind: "system", Text: "hello"})
		sysID = "sys-1"
	})
	call(ra, func() { ra.HandleModerateChatMessage(hostID, sysID) })
	call(ra, func() {
		found := false
		for _, m := range ra.room.Chat {
			if m.ID == sysID {
				found = true
			}
		}
		if !found {
			t.Fatalf("a system message must never be removable by moderation")
		}
	})
}
