package room

import (
	"encoding/json"
	"time"

	"github.com/Unkno394/QuizBattleee/internal/store"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// snapshotPayload is the full room state plus the bookkeeping fields
// §6's "Persisted snapshot format" calls out explicitly: stateVersion,
// deadlineEpochMs, lastEventId, hostTokenHash, roomPasswordHash,
// usedTeamNames, questions, players (sans sockets).
type snapshotPayload struct {
	Code   string          `json:"roomId"`
	Config types.RoomConfig `json:"config"`

	Questions            []types.Question `json:"questions"`
	Phase                types.Phase       `json:"phase"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	ActiveTeam           types.Team        `json:"activeTeam"`
	DeadlineEpochMS      int64             `json:"deadlineEpochMs"`

	HostPeerID string              `json:"hostPeerId"`
	Players    []types.PlayerView  `json:"players"`
	// PlayerTokens maps playerToken -> peerID so a restored room (before
	// its restart-path reset) still honors stale reclaim attempts.
	PlayerTokens map[string]string `json:"playerTokens"`

	Teams map[types.Team]types.TeamState `json:"teams"`

	TeamScores   map[types.Team]int `json:"teamScores"`
	PlayerScores map[string]int     `json:"playerScores"`

	LastReveal      *types.RevealRecord         `json:"lastReveal,omitempty"`
	Chat            []types.ChatMessage         `json:"chat"`
	QuestionHistory []types.QuestionHistoryEntry `json:"questionHistory"`
	EventHistory    []types.EventRecord         `json:"eventHistory"`
	ChatStrikes     map[string]int              `json:"chatStrikes"`

	UsedTeamNames []string `json:"usedTeamNames"`

	Paused *types.PausedState `json:"paused,omitempty"`

	StateVersion int64 `json:"stateVersion"`
	LastEventID  int   `json:"lastEventId"`

	HostTokenHash    string `json:"hostTokenHash"`
	RoomPasswordHash string `json:"roomPasswordHash"`
}

// BuildSnapshot serializes the room aggregate (minus live sockets and
// timers) for both persistence tiers (§4.10, §6).
func (r *Room) BuildSnapshot(nowMS int64) store.Snapshot {
	players := make([]types.PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.View())
	}
	teams := make(map[types.Team]types.TeamState, len(r.Teams))
	for k, v := range r.Teams {
		teams[k] = *v
	}
	used := make([]string, 0, len(r.UsedTeamNames))
	for name := range r.UsedTeamNames {
		used = append(used, name)
	}

	payload := snapshotPayload{
		Code:                 r.Code,
		Config:               r.Config,
		Questions:            r.Questions,
		Phase:                r.Phase,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		ActiveTeam:           r.ActiveTeam,
		DeadlineEpochMS:      r.PhaseDeadlineMS,
		HostPeerID:           r.HostPeerID,
		Players:              players,
		PlayerTokens:         r.PlayerTokens,
		Teams:                teams,
		TeamScores:           r.TeamScores,
		PlayerScores:         r.PlayerScores,
		LastReveal:           r.LastReveal,
		Chat:                 r.Chat,
		QuestionHistory:      r.QuestionHistory,
		EventHistory:         r.EventHistory,
		ChatStrikes:          r.ChatStrikes,
		UsedTeamNames:        used,
		Paused:               r.Paused,
		StateVersion:         r.StateVersion(),
		LastEventID:          len(r.EventHistory),
		HostTokenHash:        r.Config.HostTokenHash,
		RoomPasswordHash:     r.Config.PasswordHash,
	}
	body, _ := json.Marshal(payload)
	return store.Snapshot{
		RoomID:        r.Code,
		Topic:         r.Config.Topic,
		QuestionCount: len(r.Questions),
		StateJSON:     string(body),
		UpdatedAt:     time.UnixMilli(nowMS).UTC(),
	}
}

// DecodeSnapshot rebuilds a Room (without sockets, without armed timers)
// from a persisted stateJSON blob. Callers apply postLoadReset to honor
// §4.10's restart path before handing the room to an actor.
func DecodeSnapshot(roomID, stateJSON string) (*Room, error) {
	var payload snapshotPayload
	if err := json.Unmarshal([]byte(stateJSON), &payload); err != nil {
		return nil, err
	}

	r := NewRoom(payload.Code, payload.Config, payload.Questions)
	r.Config.HostTokenHash = payload.HostTokenHash
	r.Config.PasswordHash = payload.RoomPasswordHash
	r.Phase = payload.Phase
	r.CurrentQuestionIndex = payload.CurrentQuestionIndex
	r.ActiveTeam = payload.ActiveTeam
	r.PhaseDeadlineMS = payload.DeadlineEpochMS
	r.HostPeerID = payload.HostPeerID
	r.PlayerTokens = payload.PlayerTokens
	if r.PlayerTokens == nil {
		r.PlayerTokens = map[string]string{}
	}
	r.TeamScores = payload.TeamScores
	r.PlayerScores = payload.PlayerScores
	r.LastReveal = payload.LastReveal
	r.Chat = payload.Chat
	r.QuestionHistory = payload.QuestionHistory
	r.EventHistory = payload.EventHistory
	r.ChatStrikes = payload.ChatStrikes
	if r.ChatStrikes == nil {
		r.ChatStrikes = map[string]int{}
	}
	r.Paused = payload.Paused
	r.SetVersion(payload.StateVersion)

	r.Teams = make(map[types.Team]*types.TeamState, len(payload.Teams))
	for k, v := range payload.Teams {
		team := v
		r.Teams[k] = &team
	}
	if _, ok := r.Teams[types.TeamA]; !ok {
		r.Teams[types.TeamA] = types.NewTeamState()
	}
	if _, ok := r.Teams[types.TeamB]; !ok {
		r.Teams[types.TeamB] = types.NewTeamState()
	}

	r.UsedTeamNames = make(map[string]struct{}, len(payload.UsedTeamNames))
	for _, name := range payload.UsedTeamNames {
		r.UsedTeamNames[name] = struct{}{}
	}

	for _, pv := range payload.Players {
		team := pv.Team
		r.Players[pv.PeerID] = &PlayerConnection{
			PeerID:      pv.PeerID,
			Name:        pv.Name,
			Team:        team,
			IsHost:      pv.IsHost,
			IsSpectator: pv.IsSpectator,
			IsCaptain:   pv.IsCaptain,
			Cosmetic:    pv.Cosmetic,
			Stats:       pv.Stats,
			Socket:      nil, // reattached on first admission after handoff/reclaim
		}
	}
	return r, nil
}

// ResetToEmptyLobby discards every connection, team/vote/question state
// and score, returning the room to a fresh lobby — the §4.10 restart
// path. §4.9 step 7's "not enough players" reset uses resetGameToLobby
// instead.
func (r *Room) ResetToEmptyLobby() {
	r.Phase = PhaseLobby
	r.CurrentQuestionIndex = 0
	r.ActiveTeam = types.TeamA
	r.PhaseDeadlineMS = 0
	r.Players = make(map[string]*PlayerConnection)
	r.HostPeerID = ""
	r.PlayerTokens = make(map[string]string)
	r.Teams = map[types.Team]*types.TeamState{types.TeamA: types.NewTeamState(), types.TeamB: types.NewTeamState()}
	r.TeamScores = map[types.Team]int{types.TeamA: 0, types.TeamB: 0}
	r.PlayerScores = make(map[string]int)
	r.ActiveAnswer = nil
	r.Submissions = make(map[string]types.Submission)
	r.SkipRequesters = make(map[string]struct{})
	r.SkipStatus = "idle"
	r.SkipMessageID = ""
	r.LastReveal = nil
	r.UsedTeamNames = make(map[string]struct{})
	r.Paused = nil
}

// resetGameToLobby is the in-game variant of the reset (§4.9 step 7 and
// the "not enough players" rule): it keeps the room's chat/event history
// and membership from being wiped, unlike a full restart reset, but
// clears the live game state so a fresh start-game can run.
func (r *Room) resetGameToLobby(notice string) {
	r.Phase = PhaseLobby
	r.CurrentQuestionIndex = 0
	r.ActiveTeam = types.TeamA
	r.PhaseDeadlineMS = 0
	r.Teams = map[types.Team]*types.TeamState{types.TeamA: types.NewTeamState(), types.TeamB: types.NewTeamState()}
	r.TeamScores = map[types.Team]int{types.TeamA: 0, types.TeamB: 0}
	r.PlayerScores = make(map[string]int)
	r.ActiveAnswer = nil
	r.Submissions = make(map[string]types.Submission)
	r.SkipRequesters = make(map[string]struct{})
	r.SkipStatus = "idle"
	r.SkipMessageID = ""
	r.LastReveal = nil
	r.Paused = nil
	for _, p := range r.Players {
		if !p.IsHost {
			p.Team = nil
			p.IsCaptain = false
			p.IsSpectator = false
		}
	}
}
