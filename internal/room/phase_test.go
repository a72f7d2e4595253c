package room

import (
	"testing"
	"time"

	"github.com/Unkno394/QuizBattleee/internal/store"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

func TestStartGameFFAGoesDirectlyToQuestion(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")

	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("ffa start-game must enter question directly, got phase %q", ra.room.Phase)
		}
		if ra.room.CurrentQuestionIndex != 0 {
			t.Fatalf("expected question index 0, got %d", ra.room.CurrentQuestionIndex)
		}
		if ra.armedTimerCount() == 0 {
			t.Fatalf("question phase must arm a timer (P3)")
		}
	})
}

func TestStartGameClassicGoesToTeamReveal(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeClassic, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")
	joinPlayer(t, ra, "Bob")

	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() {
		if ra.room.Phase != PhaseTeamReveal {
			t.Fatalf("classic start-game must enter team-reveal, got %q", ra.room.Phase)
		}
		for _, p := range ra.room.Players {
			if p.IsHost {
				continue
			}
			if p.Team == nil {
				t.Fatalf("player %s must be assigned a team", p.Name)
			}
		}
	})
}

func TestStartGameIgnoredByNonHost(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")

	call(ra, func() { ra.HandleStartGame(aliceID) })

	call(ra, func() {
		if ra.room.Phase != PhaseLobby {
			t.Fatalf("a non-host start-game must be a no-op, got phase %q", ra.room.Phase)
		}
	})
}

// Deterministic team assignment: for the same seed and the same set of
// peer-ids, assignTeams always produces the same split — it must not
// depend on Go's randomized map iteration order. Peer-ids are inserted
// directly (rather than via joinPlayer's random uuid.NewString()) so the
// two rooms start from identical input.
func TestAssignTeamsIsDeterministicPerSeed(t *testing.T) {
	build := func() *RoomActor {
		ra, _ := newTestActor(t, types.ModeClassic, 5, 42)
		hostID, _ := joinPlayer(t, ra, "Host", asHost())
		call(ra, func() {
			for _, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
				id := "peer-" + name
				ra.room.Players[id] = &PlayerConnection{PeerID: id, Name: name}
			}
			ra.HandleStartGame(hostID)
		})
		return ra
	}

	teamsOf := func(ra *RoomActor) map[string]types.Team {
		out := map[string]types.Team{}
		call(ra, func() {
			for _, p := range ra.room.Players {
				if p.Team != nil {
					out[p.Name] = *p.Team
				}
			}
		})
		return out
	}

	t1 := teamsOf(build())
	t2 := teamsOf(build())
	if len(t1) != 4 || len(t2) != 4 {
		t.Fatalf("expected 4 assigned players, got %d vs %d", len(t1), len(t2))
	}
	for name, team := range t1 {
		if t2[name] != team {
			t.Fatalf("same seed and same peer-ids must produce the same team split: %s got %s vs %s", name, team, t2[name])
		}
	}
}

func TestEnterResultsAppendsGameResultAndNewGameReturnsToLobby(t *testing.T) {
	ra, clock := newTestActor(t, types.ModeFFA, 1, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")

	call(ra, func() { ra.HandleStartGame(hostID) })
	clock.Advance(1000 * time.Millisecond)
	call(ra, func() { ra.HandleSubmitAnswer(aliceID, 0) })
	call(ra, func() { ra.onRevealTimer() }) // reveal -> results

	call(ra, func() {
		if ra.room.Phase != PhaseResults {
			t.Fatalf("single-question ffa game must reach results after the only question, got %q", ra.room.Phase)
		}
	})

	mem := ra.deps.Durable.(*store.MemoryStore)
	results := mem.Results()
	if len(results) != 1 {
		t.Fatalf("expected one appended game result, got %d", len(results))
	}
	if results[0].RoomID != "TESTRM" {
		t.Fatalf("expected game result for TESTRM, got %q", results[0].RoomID)
	}

	call(ra, func() { ra.HandleNewGame(hostID) })
	call(ra, func() {
		if ra.room.Phase != PhaseLobby {
			t.Fatalf("new-game must return to lobby, got %q", ra.room.Phase)
		}
		if len(ra.room.Players) != 2 {
			t.Fatalf("new-game must keep existing membership, got %d players", len(ra.room.Players))
		}
	})
}
