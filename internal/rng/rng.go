// Package rng provides an injectable source of randomness so that
// behavior depending on tie-breaks (chaos vote ties, captain-vote ties,
// random team names) can be made deterministic in tests, per spec.md's
// "Captain election randomness" design note.
package rng

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

// Source picks a uniformly random index in [0, n).
type Source interface {
	Intn(n int) int
}

// Crypto is the production Source, backed by crypto/rand the way the
// teacher's game package picks random roles/bluffs.
type Crypto struct{}

func (Crypto) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(idx.Int64())
}

// Seeded is a deterministic Source for tests: same seed, same sequence.
type Seeded struct {
	mu  sync.Mutex
	src *mrand.Rand
}

func NewSeeded(seed int64) *Seeded {
	return &Seeded{src: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Intn(n)
}

// PickString returns a uniformly random element of options via src.
func PickString(src Source, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[src.Intn(len(options))]
}

// PickInt returns a uniformly random element of options via src.
func PickInt(src Source, options []int) int {
	if len(options) == 0 {
		return 0
	}
	return options[src.Intn(len(options))]
}
