package room

import (
	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/events"
	"github.com/Unkno394/QuizBattleee/internal/identity"
	"github.com/Unkno394/QuizBattleee/internal/observability"
	"github.com/Unkno394/QuizBattleee/internal/questions"
	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/store"
)

// Deps bundles the external collaborators a RoomActor is wired against
// (spec.md §1's "four capabilities" plus the ambient stack). A single
// Deps is shared by every actor the RoomManager owns.
type Deps struct {
	Clock       Clock
	RNG         rng.Source
	Identity    identity.Resolver
	Hot         store.HotCache
	Durable     store.DurableStore
	Publisher   events.Publisher
	Provisioner questions.Provisioner
	Logger      *zap.Logger
	Metrics     *observability.Metrics

	MaxPlayers    int
	DBIntervalMS  int64
	HotIntervalMS int64
	HotCacheTTL   int64 // milliseconds
	JoinTimeoutMS int64
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.RNG == nil {
		d.RNG = rng.Crypto{}
	}
	if d.Publisher == nil {
		d.Publisher = events.NoopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxPlayers <= 0 {
		d.MaxPlayers = MaxPlayers
	}
	if d.DBIntervalMS <= 0 {
		d.DBIntervalMS = 3500
	}
	if d.HotIntervalMS <= 0 {
		d.HotIntervalMS = 750
	}
	if d.HotCacheTTL <= 0 {
		d.HotCacheTTL = int64(12 * 3600 * 1000)
	}
	if d.JoinTimeoutMS <= 0 {
		d.JoinTimeoutMS = JoinTimeout.Milliseconds()
	}
	return d
}
