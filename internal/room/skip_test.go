package room

import (
	"testing"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// P10: a rejected skip request never gets re-pinned for the remainder of
// the question, even after a fresh request comes in.
func TestSkipRequestRejectedNeverDowngrades(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	joinPlayer(t, ra, "Bob")
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.HandleRequestSkip(aliceID) })
	call(ra, func() {
		if ra.room.SkipStatus != "pending" {
			t.Fatalf("expected pending skip status after a request, got %q", ra.room.SkipStatus)
		}
	})

	call(ra, func() { ra.HandleResolveSkipRequest(hostID, "reject") })
	call(ra, func() {
		if ra.room.SkipStatus != "rejected" {
			t.Fatalf("expected rejected skip status, got %q", ra.room.SkipStatus)
		}
	})

	// A fresh request from a different player must not resurrect pending.
	bobIDFresh := ""
	call(ra, func() {
		for id, p := range ra.room.Players {
			if p.Name == "Bob" {
				bobIDFresh = id
			}
		}
	})
	call(ra, func() { ra.HandleRequestSkip(bobIDFresh) })
	call(ra, func() {
		if ra.room.SkipStatus != "rejected" {
			t.Fatalf("a rejected skip status must never downgrade back to pending, got %q", ra.room.SkipStatus)
		}
	})
}

func TestSkipRequestDuplicateIsNoOp(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.HandleRequestSkip(aliceID) })
	call(ra, func() { ra.HandleRequestSkip(aliceID) })
	call(ra, func() {
		if len(ra.room.SkipRequesters) != 1 {
			t.Fatalf("duplicate skip requests from the same player must not double count, got %d", len(ra.room.SkipRequesters))
		}
	})
}

func TestSkipApproveFinalizesQuestionImmediately(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.HandleRequestSkip(aliceID) })
	call(ra, func() { ra.HandleResolveSkipRequest(hostID, "approve") })
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion || ra.room.CurrentQuestionIndex != 1 {
			t.Fatalf("an approved skip in ffa must finalize the question and open the next one with no reveal phase, got phase %q index %d", ra.room.Phase, ra.room.CurrentQuestionIndex)
		}
	})
}

func TestHostOrSpectatorCannotRequestSkip(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.HandleRequestSkip(hostID) })
	call(ra, func() {
		if len(ra.room.SkipRequesters) != 0 {
			t.Fatalf("the host must not be able to request a skip, got %d requesters", len(ra.room.SkipRequesters))
		}
	})
}
