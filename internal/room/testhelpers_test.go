package room

import (
	"context"
	"fmt"
	"testing"

	"github.com/Unkno394/QuizBattleee/internal/auth"
	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/store"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// fakeSocket records every frame sent to it, standing in for a gateway
// session in tests.
type fakeSocket struct {
	sent      []any
	closed    bool
	closeCode int
}

func (s *fakeSocket) Send(frame any) error {
	s.sent = append(s.sent, frame)
	return nil
}

func (s *fakeSocket) Close(code int, reason string) error {
	s.closed = true
	s.closeCode = code
	return nil
}

const testHostToken = "host-secret-token"

func testQuestions(n int) []types.Question {
	qs := make([]types.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, types.Question{
			ID:           fmt.Sprintf("q%d", i),
			Text:         fmt.Sprintf("question number %d", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
			Difficulty:   "easy",
		})
	}
	return qs
}

// newTestActor builds a RoomActor wired with a FixedClock and a seeded
// RNG so every timer deadline and tie-break is deterministic.
func newTestActor(t *testing.T, mode types.GameMode, questionCount int, seed int64) (*RoomActor, *FixedClock) {
	t.Helper()
	clock := &FixedClock{MS: 1_700_000_000_000}
	cfg := types.RoomConfig{
		Topic:         "general",
		GameMode:      mode,
		Difficulty:    types.DifficultyMedium,
		QuestionCount: questionCount,
		HostTokenHash: auth.HashSecret(testHostToken),
	}
	r := NewRoom("TESTRM", cfg, testQuestions(questionCount))
	mem := store.NewMemoryStore()
	deps := Deps{
		Clock:   clock,
		RNG:     rng.NewSeeded(seed),
		Hot:     mem,
		Durable: mem,
	}.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	ra := newRoomActor(ctx, r, deps, nil)
	t.Cleanup(cancel)
	return ra, clock
}

// joinOpt mutates a join payload before admission.
type joinOpt func(*types.JoinPayload)

func asHost() joinOpt {
	return func(p *types.JoinPayload) { p.HostToken = testHostToken }
}

// joinPlayer admits name as a fresh connection and fails the test on any
// admission error.
func joinPlayer(t *testing.T, ra *RoomActor, name string, opts ...joinOpt) (string, *fakeSocket) {
	t.Helper()
	payload := types.JoinPayload{RoomID: ra.RoomID, Name: name}
	for _, opt := range opts {
		opt(&payload)
	}
	sock := &fakeSocket{}
	identityKey := "guest:" + name + "-stable-id"
	outcome := ra.Admit(payload, identityKey, sock)
	if outcome.Err != nil {
		t.Fatalf("admit %q failed: %v", name, outcome.Err)
	}
	return outcome.Connected.PeerID, sock
}

// rejoinPlayer re-admits the same identity key under a fresh socket, the
// handoff path (§4.1.2).
func rejoinPlayer(t *testing.T, ra *RoomActor, name string, opts ...joinOpt) (string, *fakeSocket, *fakeSocket) {
	t.Helper()
	payload := types.JoinPayload{RoomID: ra.RoomID, Name: name}
	for _, opt := range opts {
		opt(&payload)
	}
	sock := &fakeSocket{}
	identityKey := "guest:" + name + "-stable-id"
	outcome := ra.Admit(payload, identityKey, sock)
	if outcome.Err != nil {
		t.Fatalf("rejoin %q failed: %v", name, outcome.Err)
	}
	var old *fakeSocket
	if outcome.OldSocket != nil {
		old = outcome.OldSocket.(*fakeSocket)
	}
	return outcome.Connected.PeerID, sock, old
}

// call runs fn synchronously on the actor's own goroutine, exactly the
// way the gateway's Dispatch does, so handler state mutations are always
// observed from a clean, serialized point of view.
func call(ra *RoomActor, fn func()) {
	ra.run(fn)
}
