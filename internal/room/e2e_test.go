package room

import (
	"testing"
	"time"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// Scenario 1: classic happy path. Host + 4 players, start-game walks
// team-reveal -> captain-vote -> team-naming -> question[0], team A's
// captain answers correctly with 28s remaining (2s elapsed of 30s) for
// 3 points, then team B's captain answers wrong with only 5s remaining.
func TestScenarioClassicHappyPath(t *testing.T) {
	ra, clock := newTestActor(t, types.ModeClassic, 5, 11)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	a1, _ := joinPlayer(t, ra, "A1")
	a2, _ := joinPlayer(t, ra, "A2")
	b1, _ := joinPlayer(t, ra, "B1")
	b2, _ := joinPlayer(t, ra, "B2")

	call(ra, func() { ra.HandleStartGame(hostID) })
	call(ra, func() {
		if ra.room.Phase != PhaseTeamReveal {
			t.Fatalf("expected team-reveal, got %q", ra.room.Phase)
		}
	})

	call(ra, func() { ra.onTeamRevealTimer() })
	call(ra, func() {
		if ra.room.Phase != PhaseCaptainVote {
			t.Fatalf("expected captain-vote after team-reveal, got %q", ra.room.Phase)
		}
	})

	// Each team elects its own captain (one vote per member is enough
	// since both are 2-member teams).
	var teamOf = map[string]types.Team{}
	call(ra, func() {
		for _, id := range []string{a1, a2, b1, b2} {
			teamOf[id] = *ra.room.Players[id].Team
		}
	})
	membersOf := func(team types.Team) []string {
		out := []string{}
		for id, tm := range teamOf {
			if tm == team {
				out = append(out, id)
			}
		}
		return out
	}
	teamAMembers := membersOf(types.TeamA)
	teamBMembers := membersOf(types.TeamB)
	if len(teamAMembers) != 2 || len(teamBMembers) != 2 {
		t.Fatalf("expected a 2-2 split, got A=%v B=%v", teamAMembers, teamBMembers)
	}
	// Every member votes for the other member on their team (nobody may
	// vote for themselves), so both ballots are cast and the team becomes
	// ready without relying on the auto-captain shortcut.
	call(ra, func() { ra.HandleVoteCaptain(teamAMembers[0], teamAMembers[1]) })
	call(ra, func() { ra.HandleVoteCaptain(teamAMembers[1], teamAMembers[0]) })
	call(ra, func() { ra.HandleVoteCaptain(teamBMembers[0], teamBMembers[1]) })
	call(ra, func() { ra.HandleVoteCaptain(teamBMembers[1], teamBMembers[0]) })

	call(ra, func() {
		if ra.room.Phase != PhaseTeamNaming {
			t.Fatalf("expected team-naming once both captains are chosen, got %q", ra.room.Phase)
		}
	})

	var captainA, captainB string
	call(ra, func() {
		captainA = ra.room.Teams[types.TeamA].Captain
		captainB = ra.room.Teams[types.TeamB].Captain
	})
	if captainA == "" || captainB == "" {
		t.Fatalf("expected both teams to have elected a captain, got A=%q B=%q", captainA, captainB)
	}

	// Both captains accept a random team name.
	call(ra, func() { ra.HandleRandomTeamName(captainA) })
	call(ra, func() { ra.HandleRandomTeamName(captainB) })
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion || ra.room.CurrentQuestionIndex != 0 {
			t.Fatalf("expected question[0], got phase %q index %d", ra.room.Phase, ra.room.CurrentQuestionIndex)
		}
		if ra.room.ActiveTeam != types.TeamA {
			t.Fatalf("question[0] must open with team A active, got %q", ra.room.ActiveTeam)
		}
	})

	clock.Advance(2_000 * time.Millisecond) // 28s remaining of 30s
	call(ra, func() { ra.HandleSubmitAnswer(captainA, 0) })
	call(ra, func() {
		if ra.room.TeamScores[types.TeamA] != 3 {
			t.Fatalf("expected team A to score 3 (1 base + 2 bonus), got %d", ra.room.TeamScores[types.TeamA])
		}
		if ra.room.Phase != PhaseReveal {
			t.Fatalf("a captain's submission finalizes the question immediately, got phase %q", ra.room.Phase)
		}
	})

	call(ra, func() { ra.onRevealTimer() })
	call(ra, func() {
		if ra.room.ActiveTeam != types.TeamB {
			t.Fatalf("expected team B's turn on the same question, got %q", ra.room.ActiveTeam)
		}
		if ra.room.CurrentQuestionIndex != 0 {
			t.Fatalf("team B answers the same question, expected index 0, got %d", ra.room.CurrentQuestionIndex)
		}
	})

	clock.Advance(25_000 * time.Millisecond) // leaves 5s of 30s
	call(ra, func() { ra.HandleSubmitAnswer(captainB, 1) })
	call(ra, func() {
		if ra.room.TeamScores[types.TeamB] != 0 {
			t.Fatalf("team B answered wrong, expected 0, got %d", ra.room.TeamScores[types.TeamB])
		}
	})
}

// Scenario 2: FFA skip. One wrong submission, then a host skip moves
// straight to the next question with no reveal phase, and the
// non-submitters get a skip stat.
func TestScenarioFFASkip(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 3)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	p1, _ := joinPlayer(t, ra, "P1")
	p2, _ := joinPlayer(t, ra, "P2")
	p3, _ := joinPlayer(t, ra, "P3")
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.HandleSubmitAnswer(p1, 1) }) // wrong
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("must still be waiting on p2/p3, got phase %q", ra.room.Phase)
		}
	})

	call(ra, func() { ra.HandleSkipQuestion(hostID) })
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("an ffa host skip must open the next question with no reveal phase, got %q", ra.room.Phase)
		}
		if ra.room.LastReveal != nil {
			t.Fatalf("an ffa host skip must not publish a reveal record")
		}
		for _, id := range []string{p2, p3} {
			if ra.room.Players[id].Stats.Skipped != 1 {
				t.Fatalf("non-submitter %s must get a skip stat, got %d", id, ra.room.Players[id].Stats.Skipped)
			}
		}
	})

	call(ra, func() {
		if ra.room.CurrentQuestionIndex != 1 {
			t.Fatalf("expected to move to question[1], got index %d", ra.room.CurrentQuestionIndex)
		}
	})
}

// Scenario 3: host reconnect. Host disconnects mid-question with time
// remaining; reconnecting (handoff) within the grace window resumes the
// exact same phase with the remembered remaining-ms.
func TestScenarioHostReconnect(t *testing.T) {
	ra, clock := newTestActor(t, types.ModeFFA, 5, 4)
	hostID, hostSock := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	clock.Advance(17_500 * time.Millisecond) // 12.5s remaining of 30s
	call(ra, func() { ra.onSocketClosed(hostID, hostSock) })
	call(ra, func() {
		if ra.room.Phase != PhaseHostReconnect {
			t.Fatalf("expected host-reconnect phase, got %q", ra.room.Phase)
		}
		if ra.room.Paused.RemainingMs != 12_500 {
			t.Fatalf("expected 12500ms remembered, got %d", ra.room.Paused.RemainingMs)
		}
	})

	_, _, old := rejoinPlayer(t, ra, "Host", asHost())
	if old != hostSock {
		t.Fatalf("reconnect handoff must report the stale host socket for the gateway to close")
	}
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("reconnecting the host must resume the interrupted question phase, got %q", ra.room.Phase)
		}
		remaining := ra.room.PhaseDeadlineMS - ra.now()
		if remaining != 12_500 {
			t.Fatalf("expected exactly 12500ms remaining after resume, got %d", remaining)
		}
	})
}

// Scenario 4: duplicate identity handoff (same account reconnecting) —
// already exercised in depth by TestAdmitDuplicateIdentityHandsOff (P1);
// this restates it end to end including the no-duplicate-entry check.
func TestScenarioDuplicateIdentityHandoffNoDuplicateEntry(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	firstID, firstSock := joinPlayer(t, ra, "Acct7")
	secondID, secondSock, old := rejoinPlayer(t, ra, "Acct7")

	if firstID != secondID {
		t.Fatalf("reconnect must reuse the same peer id, got %q vs %q", firstID, secondID)
	}
	if old != firstSock {
		t.Fatalf("expected the stale socket back so the gateway can close it with 4002")
	}
	if secondSock == firstSock {
		t.Fatalf("expected a distinct new socket bound after handoff")
	}
	call(ra, func() {
		count := 0
		for _, p := range ra.room.Players {
			if p.PeerID == firstID {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("expected exactly one player entry for the reconnected account, got %d", count)
		}
	})
}

// Scenario 5: chaos tie. Team A votes [1,2,1,2]; tie-break picks one of
// the tied options and flags it.
func TestScenarioChaosTie(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeChaos, 5, 21)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	p1, _ := joinPlayer(t, ra, "P1")
	p2, _ := joinPlayer(t, ra, "P2")
	p3, _ := joinPlayer(t, ra, "P3")
	p4, _ := joinPlayer(t, ra, "P4")
	call(ra, func() { ra.HandleStartGame(hostID) })
	call(ra, func() { ra.onTeamRevealTimer() })
	call(ra, func() { ra.onTeamNamingTimer() })

	teamA := types.TeamA
	call(ra, func() {
		for _, id := range []string{p1, p2, p3, p4} {
			ra.room.Players[id].Team = &teamA
		}
	})

	call(ra, func() { ra.HandleSubmitAnswer(p1, 1) })
	call(ra, func() { ra.HandleSubmitAnswer(p2, 2) })
	call(ra, func() { ra.HandleSubmitAnswer(p3, 1) })
	call(ra, func() { ra.HandleSubmitAnswer(p4, 2) })

	call(ra, func() {
		res, ok := ra.room.LastReveal.ChaosTeamResults[types.TeamA]
		if !ok {
			t.Fatalf("expected a chaos result for team A")
		}
		if !res.TieResolvedRandomly {
			t.Fatalf("a 2-2 split between options 1 and 2 must be flagged tie-resolved")
		}
		if res.SelectedIndex == nil || (*res.SelectedIndex != 1 && *res.SelectedIndex != 2) {
			t.Fatalf("selected index must be one of the tied options, got %v", res.SelectedIndex)
		}
	})
}

// Scenario 6: moderation disqualification. Three struck messages from
// the same sender disqualify them, notify them alone, and announce it
// publicly.
func TestScenarioModerationDisqualification(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	uID, uSock := joinPlayer(t, ra, "U")

	for i := 0; i < 3; i++ {
		call(ra, func() { ra.HandleSendChat(uID, "strike me") })
		var msgID string
		call(ra, func() { msgID = ra.room.Chat[len(ra.room.Chat)-1].ID })
		call(ra, func() { ra.HandleModerateChatMessage(hostID, msgID) })
	}

	call(ra, func() {
		if !ra.room.Players[uID].IsSpectator {
			t.Fatalf("U must be disqualified (spectator) after a 3rd strike")
		}
		if _, stillRequesting := ra.room.SkipRequesters[uID]; stillRequesting {
			t.Fatalf("disqualification must withdraw any pending skip request")
		}
		foundSystemAnnounce := false
		for _, m := range ra.room.Chat {
			if m.Kind == "system" && m.Visibility == "all" {
				foundSystemAnnounce = true
			}
		}
		if !foundSystemAnnounce {
			t.Fatalf("expected a public system chat message announcing the disqualification")
		}
	})

	if len(uSock.sent) == 0 {
		t.Fatalf("expected at least one frame sent to U")
	}
	found := false
	for _, f := range uSock.sent {
		if notice, ok := f.(types.ModerationNoticeFrame); ok && notice.Disqualified {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a disqualified moderation-notice frame sent to U")
	}
}
