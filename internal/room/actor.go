// RoomActor is the single-goroutine-per-room concurrency boundary
// (spec.md §5, §9's "equally valid" channel design). A Room is never
// touched from more than one goroutine: every inbound job (a join, a
// message-handler call, a timer firing) is a closure pushed onto the
// actor's jobs channel and executed in FIFO order by the actor's loop.
// That total ordering is what invariant 6 (monotonic state-version) and
// P2/P3 rely on.
package room

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/store"
)

type RoomActor struct {
	RoomID string

	deps Deps
	ctx  context.Context

	jobs chan func()

	room *Room

	timers   map[string]*time.Timer
	timerGen map[string]uint64

	lastHotWriteMS     int64
	lastDurableWriteMS int64

	connCount int

	onEmpty func(roomID string)

	logger *zap.Logger
}

// newRoomActor wires an actor around an already-loaded Room. Callers use
// RoomManager.Get / RoomManager.CreateRoom, never this directly.
func newRoomActor(ctx context.Context, r *Room, deps Deps, onEmpty func(string)) *RoomActor {
	ra := &RoomActor{
		RoomID:   r.Code,
		deps:     deps,
		ctx:      ctx,
		jobs:     make(chan func(), 256),
		room:     r,
		timers:   make(map[string]*time.Timer),
		timerGen: make(map[string]uint64),
		onEmpty:  onEmpty,
		logger:   deps.Logger.With(zap.String("room_id", r.Code)),
	}
	go ra.loop()
	return ra
}

func (ra *RoomActor) loop() {
	for {
		select {
		case <-ra.ctx.Done():
			return
		case job := <-ra.jobs:
			ra.runJob(job)
		}
	}
}

// runJob executes one job, recovering a panic so that one malformed
// message can never take the whole room (or process) down — a code bug
// here is still a fatal condition per §7, but it's isolated to this
// room's actor instead of crashing the server.
func (ra *RoomActor) runJob(job func()) {
	defer func() {
		if rec := recover(); rec != nil {
			ra.logger.Error("room actor job panic",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	job()
}

// run schedules fn on the actor loop and blocks until it has executed,
// giving callers (the gateway, timers-that-need-a-result) synchronous
// request/response semantics over the single-goroutine boundary.
func (ra *RoomActor) run(fn func()) {
	done := make(chan struct{})
	select {
	case ra.jobs <- func() { fn(); close(done) }:
	case <-ra.ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ra.ctx.Done():
	}
}

// post schedules fn to run on the actor loop without waiting, used by
// timers and disconnect notifications that don't need a reply.
func (ra *RoomActor) post(fn func()) {
	select {
	case ra.jobs <- fn:
	case <-ra.ctx.Done():
	}
}

// Dispatch schedules fn to run on this room's single actor goroutine.
// Every gateway command handler must go through here rather than
// calling a Handle* method directly: connections each run their own
// read-pump goroutine, and the actor model's single-writer guarantee
// (§5) only holds if every mutation is funneled through the job queue.
func (ra *RoomActor) Dispatch(fn func()) {
	ra.post(fn)
}

// scheduleTimer cancels any existing timer under key then arms a fresh
// one, per §4.2's timer discipline. fn always runs on the actor's own
// goroutine via post, and is guarded by a generation counter so a timer
// that fires the instant it's being cancelled/rescheduled still no-ops
// rather than acting on stale state.
func (ra *RoomActor) scheduleTimer(key string, delay time.Duration, fn func()) {
	if delay < MinTimerDelay {
		delay = MinTimerDelay
	}
	ra.cancelTimer(key)
	ra.timerGen[key]++
	gen := ra.timerGen[key]
	t := time.AfterFunc(delay, func() {
		ra.post(func() {
			if ra.timerGen[key] != gen {
				return // cancelled or re-armed since; stale fire, no-op
			}
			fn()
		})
	})
	ra.timers[key] = t
}

func (ra *RoomActor) cancelTimer(key string) {
	if t, ok := ra.timers[key]; ok {
		t.Stop()
		delete(ra.timers, key)
	}
	ra.timerGen[key]++ // invalidate any fire already queued behind us
}

// clearTimers cancels every armed timer (§4.2), used before any phase
// change takes effect.
func (ra *RoomActor) clearTimers() {
	for key := range ra.timers {
		ra.cancelTimer(key)
	}
}

func (ra *RoomActor) now() int64 { return ra.deps.Clock.NowMS() }

// armedTimerCount reports how many timers the actor holds (armed, or
// fired but not yet cancelled or re-armed), exercised by tests asserting
// P3 (phase-timer coupling).
func (ra *RoomActor) armedTimerCount() int { return len(ra.timers) }

// persist runs persistRoom (§4.10) synchronously inside the current job;
// persistence writes are short and happen inside the actor's turn, per
// §5's "Persistence writes... happen inside the mutex (they are short)".
func (ra *RoomActor) persist(ctx context.Context, forceHot, forceDurable bool) {
	nowMS := ra.now()
	snap := ra.room.BuildSnapshot(nowMS)

	if forceDurable || nowMS-ra.lastDurableWriteMS >= ra.deps.DBIntervalMS {
		if ra.deps.Durable != nil {
			if err := ra.deps.Durable.Save(ctx, snap); err != nil {
				ra.logger.Warn("durable snapshot write failed", zap.Error(err))
				if ra.deps.Metrics != nil {
					ra.deps.Metrics.PersistFailures.WithLabelValues("durable").Inc()
				}
			} else {
				ra.lastDurableWriteMS = nowMS
				if ra.deps.Metrics != nil {
					ra.deps.Metrics.DurableWrites.Inc()
				}
			}
		}
		if ra.deps.Hot != nil {
			if err := ra.deps.Hot.Set(ctx, ra.room.Code, snap.StateJSON, hotTTL(ra.deps.HotCacheTTL)); err != nil {
				ra.logger.Warn("hot cache timestamp refresh failed", zap.Error(err))
			} else {
				ra.lastHotWriteMS = nowMS
			}
		}
		return
	}
	if ra.deps.Hot != nil && (forceHot || nowMS-ra.lastHotWriteMS >= ra.deps.HotIntervalMS) {
		if err := ra.deps.Hot.Set(ctx, ra.room.Code, snap.StateJSON, hotTTL(ra.deps.HotCacheTTL)); err != nil {
			ra.logger.Warn("hot cache write failed", zap.Error(err))
			if ra.deps.Metrics != nil {
				ra.deps.Metrics.PersistFailures.WithLabelValues("hot").Inc()
			}
		} else {
			ra.lastHotWriteMS = nowMS
			if ra.deps.Metrics != nil {
				ra.deps.Metrics.HotWrites.Inc()
			}
		}
	}
}

func hotTTL(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// forceFinalPersist is called once, on the path that removes the last
// connection from the room (§3 Lifecycle, §4.9 step 3).
func (ra *RoomActor) forceFinalPersist(ctx context.Context) {
	ra.clearTimers()
	ra.persist(ctx, true, true)
}

// RoomManager is the global room registry (§3 Lifecycle, §5). It is
// guarded by its own mutex, held only to look up/insert/evict an actor
// pointer — never across a room mutation, per §5's ordering rule.
type RoomManager struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	actors map[string]*RoomActor
	deps   Deps
}

func NewRoomManager(ctx context.Context, deps Deps) *RoomManager {
	if ctx == nil {
		ctx = context.Background()
	}
	actorCtx, cancel := context.WithCancel(ctx)
	return &RoomManager{
		ctx:    actorCtx,
		cancel: cancel,
		actors: make(map[string]*RoomActor),
		deps:   deps.withDefaults(),
	}
}

// Close cancels every room actor's context, which stops each loop; it
// does not force a final persist (callers that need a clean shutdown
// should call ShutdownAll first, per §3's "Shutdown path").
func (m *RoomManager) Close() { m.cancel() }

// ShutdownAll cancels every room's timers and forces both persistence
// tiers, then stops the actors (§3's Shutdown path).
func (m *RoomManager) ShutdownAll(ctx context.Context) {
	m.mu.Lock()
	actors := make([]*RoomActor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.mu.Unlock()
	for _, a := range actors {
		a.run(func() { a.forceFinalPersist(ctx) })
	}
	m.cancel()
}

// lookup returns an already-registered actor, if any, without touching
// the store.
func (m *RoomManager) lookup(roomID string) (*RoomActor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[roomID]
	return a, ok
}

// Get returns the actor for roomID, loading it from the hot cache then
// the durable store on first admission (§3 Lifecycle, §4.10). Returns
// nil, nil if neither tier has a snapshot (caller maps that to
// ROOM_NOT_FOUND).
func (m *RoomManager) Get(ctx context.Context, roomID string) (*RoomActor, error) {
	if a, ok := m.lookup(roomID); ok {
		return a, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.actors[roomID]; ok {
		return a, nil
	}

	r, err := loadRoom(ctx, roomID, m.deps)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	a := newRoomActor(m.ctx, r, m.deps, m.evict)
	m.actors[roomID] = a
	if m.deps.Metrics != nil {
		m.deps.Metrics.RoomsActive.Set(float64(len(m.actors)))
	}
	return a, nil
}

// CreateRoom inserts a fresh lobby-phase room directly into the durable
// store (the external REST room-creation call spec.md §1 treats as out
// of scope; this is the narrow seam a caller — the dev-convenience HTTP
// surface, or a test — uses to stand one up).
func (m *RoomManager) CreateRoom(ctx context.Context, r *Room) error {
	snap := r.BuildSnapshot(m.deps.Clock.NowMS())
	if m.deps.Durable == nil {
		return fmt.Errorf("room manager: no durable store configured")
	}
	return m.deps.Durable.Save(ctx, snap)
}

func (m *RoomManager) evict(roomID string) {
	m.mu.Lock()
	delete(m.actors, roomID)
	if m.deps.Metrics != nil {
		m.deps.Metrics.RoomsActive.Set(float64(len(m.actors)))
	}
	m.mu.Unlock()
}

// loadRoom implements §4.10's load policy: hot first if parseable, else
// durable; nil, nil if neither has anything.
func loadRoom(ctx context.Context, roomID string, deps Deps) (*Room, error) {
	if deps.Hot != nil {
		if raw, ok, err := deps.Hot.Get(ctx, roomID); err == nil && ok {
			if r, perr := DecodeSnapshot(roomID, raw); perr == nil {
				return postLoadReset(r), nil
			}
		}
	}
	if deps.Durable == nil {
		return nil, nil
	}
	durSnap, err := deps.Durable.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if durSnap == nil {
		return nil, nil
	}
	r, err := DecodeSnapshot(roomID, durSnap.StateJSON)
	if err != nil {
		return nil, err
	}
	return postLoadReset(r), nil
}

// postLoadReset implements §4.10's restart path: if the persisted phase
// isn't lobby, no in-flight game survives a restart — reset to an empty
// lobby and discard scores.
func postLoadReset(r *Room) *Room {
	if r.Phase != PhaseLobby {
		r.ResetToEmptyLobby()
	}
	return r
}
