package room

import (
	"testing"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// P9: a BuildSnapshot -> DecodeSnapshot round trip preserves the fields
// that matter for resuming a room, and is idempotent (encoding the
// decoded room again reproduces the same JSON-shaped facts).
func TestSnapshotRoundTripPreservesCoreState(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeClassic, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	aliceID, _ := joinPlayer(t, ra, "Alice")
	call(ra, func() {
		ra.room.Phase = PhaseTeamReveal
		teamA := types.TeamA
		ra.room.Players[aliceID].Team = &teamA
		ra.room.TeamScores[types.TeamA] = 7
		ra.room.BumpVersion()
		ra.room.BumpVersion()
	})

	var snap1JSON string
	var originalVersion int64
	call(ra, func() {
		s := ra.room.BuildSnapshot(ra.now())
		snap1JSON = s.StateJSON
		originalVersion = ra.room.StateVersion()
	})

	decoded, err := DecodeSnapshot("TESTRM", snap1JSON)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Phase != PhaseTeamReveal {
		t.Fatalf("expected phase to survive the round trip, got %q", decoded.Phase)
	}
	if decoded.TeamScores[types.TeamA] != 7 {
		t.Fatalf("expected team score to survive the round trip, got %d", decoded.TeamScores[types.TeamA])
	}
	if decoded.StateVersion() != originalVersion {
		t.Fatalf("expected state version %d to survive the round trip, got %d", originalVersion, decoded.StateVersion())
	}
	if len(decoded.Players) != 2 {
		t.Fatalf("expected both players to survive the round trip, got %d", len(decoded.Players))
	}
	if decoded.Players[aliceID].Team == nil || *decoded.Players[aliceID].Team != types.TeamA {
		t.Fatalf("expected alice's team assignment to survive the round trip")
	}
	if decoded.Players[hostID].Socket != nil {
		t.Fatalf("a decoded room must never carry a live socket reference")
	}

	snap2 := decoded.BuildSnapshot(ra.now())
	decoded2, err := DecodeSnapshot("TESTRM", snap2.StateJSON)
	if err != nil {
		t.Fatalf("second decode failed: %v", err)
	}
	if decoded2.StateVersion() != originalVersion {
		t.Fatalf("re-encoding a decoded snapshot must not change its version, got %d", decoded2.StateVersion())
	}
	if decoded2.Phase != PhaseTeamReveal {
		t.Fatalf("re-encoding a decoded snapshot must preserve phase, got %q", decoded2.Phase)
	}
}

// P2: every mutating handler strictly increases the state version.
func TestStateVersionIsMonotonic(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")

	var before int64
	call(ra, func() { before = ra.room.StateVersion() })
	call(ra, func() { ra.HandleStartGame(hostID) })
	var after int64
	call(ra, func() { after = ra.room.StateVersion() })

	if after <= before {
		t.Fatalf("a mutating handler must strictly increase the state version: before=%d after=%d", before, after)
	}
}

// A non-lobby snapshot loaded after a restart is reset to an empty lobby
// (§4.10's restart path) rather than resuming mid-game.
func TestPostLoadResetDiscardsInFlightGame(t *testing.T) {
	ra, _ := newTestActor(t, types.ModeFFA, 5, 1)
	hostID, _ := joinPlayer(t, ra, "Host", asHost())
	joinPlayer(t, ra, "Alice")
	call(ra, func() { ra.HandleStartGame(hostID) })

	var snapJSON string
	call(ra, func() { snapJSON = ra.room.BuildSnapshot(ra.now()).StateJSON })

	decoded, err := DecodeSnapshot("TESTRM", snapJSON)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	restored := postLoadReset(decoded)
	if restored.Phase != PhaseLobby {
		t.Fatalf("a restart must reset an in-flight game to lobby, got %q", restored.Phase)
	}
	if len(restored.Players) != 0 {
		t.Fatalf("a restart reset clears membership, got %d players", len(restored.Players))
	}
}
