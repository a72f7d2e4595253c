package room

import (
	"testing"
	"time"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// P8: a host disconnect during a live phase pauses with the exact
// remaining time on the clock, and reconnecting (simulated here by
// directly calling resumeFromPause, the same path a rejoin triggers)
// rearms the timer at that remembered remaining-ms rather than a fresh
// full duration.
func TestHostDisconnectPausesWithExactRemainingTime(t *testing.T) {
	ra, clock := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, hostSock := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	var deadlineBefore int64
	call(ra, func() { deadlineBefore = ra.room.PhaseDeadlineMS })
	clock.Advance(4_000 * time.Millisecond)

	call(ra, func() { ra.onSocketClosed(hostID, hostSock) })
	call(ra, func() {
		if ra.room.Phase != PhaseHostReconnect {
			t.Fatalf("host disconnect during a live phase must pause for reconnect, got phase %q", ra.room.Phase)
		}
		if ra.room.Paused == nil {
			t.Fatalf("expected a recorded paused state")
		}
		wantRemaining := deadlineBefore - clock.MS
		if ra.room.Paused.RemainingMs != wantRemaining {
			t.Fatalf("expected remembered remaining-ms %d, got %d", wantRemaining, ra.room.Paused.RemainingMs)
		}
		if ra.room.Paused.Phase != PhaseQuestion {
			t.Fatalf("expected to remember the interrupted phase as question, got %q", ra.room.Paused.Phase)
		}
	})

	call(ra, func() { ra.resumeFromPause() })
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("resuming must restore the interrupted phase, got %q", ra.room.Phase)
		}
		if ra.room.PhaseDeadlineMS != deadlineBefore {
			t.Fatalf("resumed deadline must honor the remembered remaining time: want %d, got %d", deadlineBefore, ra.room.PhaseDeadlineMS)
		}
	})
}

func TestManualPauseAndResume(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.HandleTogglePause(hostID) })
	call(ra, func() {
		if ra.room.Phase != PhaseManualPause {
			t.Fatalf("host toggle-pause must enter manual-pause, got %q", ra.room.Phase)
		}
		if ra.room.Paused == nil || ra.room.Paused.Phase != PhaseQuestion {
			t.Fatalf("manual pause must remember the interrupted phase")
		}
	})

	call(ra, func() { ra.HandleTogglePause(hostID) })
	call(ra, func() {
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("a second toggle-pause must resume, got phase %q", ra.room.Phase)
		}
	})
}

func TestManualPauseIgnoredInLobby(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())

	call(ra, func() { ra.HandleTogglePause(hostID) })
	call(ra, func() {
		if ra.room.Phase != PhaseLobby {
			t.Fatalf("toggle-pause in lobby must be a no-op, got %q", ra.room.Phase)
		}
	})
}

// When the host-reconnect grace expires, the next available non-host,
// non-spectator player is promoted and the interrupted phase resumes.
func TestHostReconnectTimeoutPromotesAndResumes(t *testing.T) {
	ra, clock := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, hostSock := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	call(ra, func() { ra.onSocketClosed(hostID, hostSock) })
	clock.Advance(time.Millisecond)
	call(ra, func() { ra.onHostReconnectTimeout() })

	call(ra, func() {
		if ra.room.HostPeerID != aliceID {
			t.Fatalf("expected alice to be promoted to host, got %q", ra.room.HostPeerID)
		}
		if !ra.room.Players[aliceID].IsHost {
			t.Fatalf("promoted player must have IsHost set")
		}
		if ra.room.Phase != PhaseQuestion {
			t.Fatalf("promotion must resume the paused phase, got %q", ra.room.Phase)
		}
		if _, stillThere := ra.room.Players[hostID]; stillThere {
			t.Fatalf("the disconnected host's ghost seat must be removed, not just demoted")
		}
		hostCount := 0
		for _, p := range ra.room.Players {
			if p.IsHost {
				hostCount++
			}
		}
		if hostCount != 1 {
			t.Fatalf("expected exactly one host after reassignment, got %d", hostCount)
		}
	})
}

func TestHostDisconnectInLobbyPausesRatherThanReassigning(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, hostSock := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")

	call(ra, func() { ra.onSocketClosed(hostID, hostSock) })
	call(ra, func() {
		if ra.room.Phase != PhaseHostReconnect {
			t.Fatalf("a lobby host disconnect is pausable too, got phase %q", ra.room.Phase)
		}
		if ra.room.Paused.Phase != PhaseLobby {
			t.Fatalf("expected to remember lobby as the paused phase, got %q", ra.room.Paused.Phase)
		}
	})
}
