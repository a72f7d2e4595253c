// Package room owns the Room aggregate: its live, socket-addressable
// state and the mutation methods the RoomActor drives from a single
// goroutine per room. The plain data shapes (questions, reveal records,
// team bookkeeping) live in internal/types so internal/projection can
// build viewer-scoped views without importing this package.
package room

import (
	"sync/atomic"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// Socket is the minimal handle the room needs to address a connection.
// The gateway's session type implements this; room never imports gateway.
type Socket interface {
	Send(frame any) error
	Close(code int, reason string) error
}

// PlayerConnection is one connected participant's seat in a room (§3).
type PlayerConnection struct {
	PeerID      string
	Name        string
	Team        *types.Team
	IsHost      bool
	IsSpectator bool
	IsCaptain   bool
	PlayerToken string
	IdentityKey string
	Cosmetic    map[string]string
	Socket      Socket
	Stats       types.PlayerStats
}

func (p *PlayerConnection) View() types.PlayerView {
	return types.PlayerView{
		PeerID:      p.PeerID,
		Name:        p.Name,
		Team:        p.Team,
		IsHost:      p.IsHost,
		IsSpectator: p.IsSpectator,
		IsCaptain:   p.IsCaptain,
		Cosmetic:    p.Cosmetic,
		Stats:       p.Stats,
	}
}

// Room is the aggregate root (§3). Every mutation is made by a method on
// *Room, called from within the owning RoomActor's single goroutine; Room
// itself holds no lock (the actor's command-channel serialization is the
// concurrency boundary, per spec.md §9's "equally valid" channel design).
type Room struct {
	Code   string
	Config types.RoomConfig

	Questions            []types.Question
	Phase                types.Phase
	CurrentQuestionIndex int
	ActiveTeam           types.Team
	PhaseDeadlineMS      int64 // 0 = no deadline armed

	Players      map[string]*PlayerConnection // peerID -> connection
	HostPeerID   string
	PlayerTokens map[string]string // playerToken -> peerID

	Teams map[types.Team]*types.TeamState

	TeamScores   map[types.Team]int
	PlayerScores map[string]int

	ActiveAnswer   *types.ClassicAnswer
	Submissions    map[string]types.Submission
	SkipRequesters map[string]struct{}
	SkipStatus     string // idle | pending | rejected
	SkipMessageID  string

	LastReveal      *types.RevealRecord
	Chat            []types.ChatMessage
	QuestionHistory []types.QuestionHistoryEntry
	EventHistory    []types.EventRecord
	ChatStrikes     map[string]int

	UsedTeamNames map[string]struct{}

	Paused *types.PausedState

	stateVersion int64 // bumped via atomic so snapshot reads need no lock
}

const (
	MaxChatLog         = 100
	MaxQuestionHistory = 200
	MaxEventHistory    = 300
)

// NewRoom constructs a fresh lobby-phase room.
func NewRoom(code string, cfg types.RoomConfig, questions []types.Question) *Room {
	r := &Room{
		Code:           code,
		Config:         cfg,
		Questions:      questions,
		Phase:          types.PhaseLobby,
		ActiveTeam:     types.TeamA,
		Players:        make(map[string]*PlayerConnection),
		PlayerTokens:   make(map[string]string),
		Teams:          map[types.Team]*types.TeamState{types.TeamA: types.NewTeamState(), types.TeamB: types.NewTeamState()},
		TeamScores:     map[types.Team]int{types.TeamA: 0, types.TeamB: 0},
		PlayerScores:   make(map[string]int),
		Submissions:    make(map[string]types.Submission),
		SkipRequesters: make(map[string]struct{}),
		SkipStatus:     "idle",
		ChatStrikes:    make(map[string]int),
		UsedTeamNames:  make(map[string]struct{}),
	}
	return r
}

// StateVersion returns the current version (invariant 6, §3).
func (r *Room) StateVersion() int64 { return atomic.LoadInt64(&r.stateVersion) }

// BumpVersion strictly increases the state version; called once per
// mutating handler via broadcastAndPersist in the room actor.
func (r *Room) BumpVersion() int64 { return atomic.AddInt64(&r.stateVersion, 1) }

// SetVersion is used only when restoring from a snapshot.
func (r *Room) SetVersion(v int64) { atomic.StoreInt64(&r.stateVersion, v) }

func (r *Room) appendChat(msg types.ChatMessage) {
	r.Chat = append(r.Chat, msg)
	if len(r.Chat) > MaxChatLog {
		r.Chat = r.Chat[len(r.Chat)-MaxChatLog:]
	}
}

func (r *Room) appendQuestionHistory(e types.QuestionHistoryEntry) {
	r.QuestionHistory = append(r.QuestionHistory, e)
	if len(r.QuestionHistory) > MaxQuestionHistory {
		r.QuestionHistory = r.QuestionHistory[len(r.QuestionHistory)-MaxQuestionHistory:]
	}
}

func (r *Room) appendEvent(e types.EventRecord) {
	r.EventHistory = append(r.EventHistory, e)
	if len(r.EventHistory) > MaxEventHistory {
		r.EventHistory = r.EventHistory[len(r.EventHistory)-MaxEventHistory:]
	}
}

// NonHostNonSpectatorPlayers returns every seat eligible to play (not the
// host, not a spectator).
func (r *Room) NonHostNonSpectatorPlayers() []*PlayerConnection {
	out := make([]*PlayerConnection, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.IsHost && !p.IsSpectator {
			out = append(out, p)
		}
	}
	return out
}

// TeamPlayers returns non-host, non-spectator players seated on team t.
func (r *Room) TeamPlayers(t types.Team) []*PlayerConnection {
	out := make([]*PlayerConnection, 0)
	for _, p := range r.Players {
		if p.IsHost || p.IsSpectator {
			continue
		}
		if p.Team != nil && *p.Team == t {
			out = append(out, p)
		}
	}
	return out
}

// EligibleSubmitters returns the set of peer-ids who may answer the
// current question, per invariant 4 (§3).
func (r *Room) EligibleSubmitters() map[string]struct{} {
	out := make(map[string]struct{})
	switch r.Config.GameMode {
	case types.ModeClassic:
		if team, ok := r.Teams[r.ActiveTeam]; ok && team.Captain != "" {
			out[team.Captain] = struct{}{}
		}
	case types.ModeChaos:
		for _, p := range r.NonHostNonSpectatorPlayers() {
			if p.Team != nil && (*p.Team == types.TeamA || *p.Team == types.TeamB) {
				out[p.PeerID] = struct{}{}
			}
		}
	case types.ModeFFA:
		for _, p := range r.NonHostNonSpectatorPlayers() {
			out[p.PeerID] = struct{}{}
		}
	}
	return out
}

// AllSubmitted reports whether every eligible submitter has answered.
func (r *Room) AllSubmitted() bool {
	switch r.Config.GameMode {
	case types.ModeClassic:
		return r.ActiveAnswer != nil
	default:
		eligible := r.EligibleSubmitters()
		if len(eligible) == 0 {
			return false
		}
		for peerID := range eligible {
			if _, ok := r.Submissions[peerID]; !ok {
				return false
			}
		}
		return true
	}
}
