// Package questions is the narrow "question provisioning" external
// capability spec.md §1 describes: either a canned topic batch or a
// pre-validated generated batch. The question-catalog/LLM generation
// service itself is out of scope; this package only defines the
// interface the core consumes plus a deterministic default
// implementation so the module runs standalone.
package questions

import (
	"context"
	"fmt"

	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// Provisioner returns a validated batch of questions for a topic,
// difficulty and count, used once at room creation before the lobby
// opens. It never runs mid-game.
type Provisioner interface {
	Provision(ctx context.Context, topic string, difficulty types.DifficultyMode, count int) ([]types.Question, error)
}

// CatalogProvisioner samples from a fixed in-process catalog, standing
// in for the out-of-scope question-catalog/LLM service. It's
// deterministic given the same rng source, which is what makes the
// admission/lobby-start path testable without a network call.
type CatalogProvisioner struct {
	catalog map[string][]types.Question
	src     rng.Source
}

// NewCatalogProvisioner builds a provisioner over a static per-topic catalog.
func NewCatalogProvisioner(catalog map[string][]types.Question, src rng.Source) *CatalogProvisioner {
	return &CatalogProvisioner{catalog: catalog, src: src}
}

func (p *CatalogProvisioner) Provision(ctx context.Context, topic string, difficulty types.DifficultyMode, count int) ([]types.Question, error) {
	pool, ok := p.catalog[topic]
	if !ok || len(pool) == 0 {
		return nil, fmt.Errorf("questions: no catalog entries for topic %q", topic)
	}
	if count < 1 {
		count = 1
	}
	if count > len(pool) {
		count = len(pool)
	}
	shuffled := make([]types.Question, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := p.src.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:count], nil
}
