// Package projection builds the viewer-scoped `state-sync` payload
// (§4.8) from plain room data. It depends only on internal/types so
// internal/room (which owns the live, socket-addressable aggregate) can
// import this package to build a broadcast without creating a cycle.
package projection

import "github.com/Unkno394/QuizBattleee/internal/types"

// Input is the full, unmasked snapshot of a room at broadcast time.
// internal/room's broadcastAndPersist assembles one Input per broadcast
// and calls Project once per connected viewer.
type Input struct {
	StateVersion         int64
	ServerTimeMS         int64
	Phase                types.Phase
	CurrentQuestionIndex int
	QuestionCount        int
	GameMode             types.GameMode
	Difficulty           types.DifficultyMode
	Topic                string
	ActiveTeam           types.Team
	PhaseDeadlineMS      int64

	TeamScores   map[types.Team]int
	PlayerScores map[string]int
	Teams        map[types.Team]types.TeamState
	Players      []types.PlayerView

	CurrentQuestion    *types.Question
	EligibleSubmitters map[string]struct{}
	AnsweredCount      int
	EligibleCount      int

	LastReveal        *types.RevealRecord
	OwnFFAReveal      *types.PlayerResult
	ChaosSubmitCounts map[types.Team]int

	SkipStatus         string
	SkipRequesterCount int
	SkipMessageID      string

	VisibleChat []types.ChatMessage

	ResultsPublic     []types.PlayerView
	ResultsHostDetail *HostDetail
}

// HostDetail is the extra per-peer stats/history bundle only the host
// receives in results (§4.8).
type HostDetail struct {
	PlayerStats     map[string]types.PlayerStats `json:"playerStats"`
	QuestionHistory []types.QuestionHistoryEntry `json:"questionHistory"`
}

// TeamView is a team's state masked for one viewer: vote tallies are
// populated for the viewer's own team (every team for host and
// spectators), and the own ballot only for the viewer's own team.
type TeamView struct {
	Name             string         `json:"name"`
	Captain          string         `json:"captain,omitempty"`
	CaptainVoteReady bool           `json:"captainVoteReady"`
	TeamNamingReady  bool           `json:"teamNamingReady"`
	VoteTally        map[string]int `json:"voteTally,omitempty"`
	OwnBallot        string         `json:"ownBallot,omitempty"`
}

// AnswerProgress is the `{answered,total}` summary shown during question.
type AnswerProgress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// SkipSummary is the skip-request status shown during question.
type SkipSummary struct {
	Status     string `json:"status"`
	Requesters int    `json:"requesters"`
	MessageID  string `json:"messageId,omitempty"`
}

// View is the full payload for one viewer, JSON-serialized as the body
// of a `state-sync` frame.
type View struct {
	StateVersion         int64                `json:"stateVersion"`
	ServerTime           int64                `json:"serverTime"`
	Phase                types.Phase          `json:"phase"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	QuestionCount        int                  `json:"questionCount"`
	GameMode             types.GameMode       `json:"gameMode"`
	Difficulty           types.DifficultyMode `json:"difficulty"`
	Topic                string               `json:"topic"`
	ActiveTeam           types.Team           `json:"activeTeam"`
	PhaseDeadlineMS      int64                `json:"phaseDeadlineMs,omitempty"`

	TeamScores   map[types.Team]int      `json:"teamScores"`
	PlayerScores map[string]int          `json:"playerScores"`
	Teams        map[types.Team]TeamView `json:"teams"`
	Players      []types.PlayerView      `json:"players"`

	Question       *types.Question `json:"question,omitempty"`
	AnswerProgress *AnswerProgress `json:"answerProgress,omitempty"`

	LastReveal   *types.RevealRecord `json:"lastReveal,omitempty"`
	OwnFFAReveal *types.PlayerResult `json:"ownReveal,omitempty"`

	ChaosSubmitCounts map[types.Team]int `json:"chaosSubmitCounts,omitempty"`
	SkipRequest       *SkipSummary       `json:"skipRequest,omitempty"`

	Chat []types.ChatMessage `json:"chat"`

	ResultsPublic []types.PlayerView `json:"resultsPublic,omitempty"`
	HostDetails   *HostDetail        `json:"hostDetails,omitempty"`
}

// ViewerContext identifies who the View is being built for.
type ViewerContext struct {
	PeerID      string
	IsHost      bool
	IsSpectator bool
	Team        *types.Team
}

// Project builds the viewer-scoped view for one connection (§4.8).
func Project(in Input, viewer ViewerContext) View {
	v := View{
		StateVersion:         in.StateVersion,
		ServerTime:           in.ServerTimeMS,
		Phase:                in.Phase,
		CurrentQuestionIndex: in.CurrentQuestionIndex,
		QuestionCount:        in.QuestionCount,
		GameMode:             in.GameMode,
		Difficulty:           in.Difficulty,
		Topic:                in.Topic,
		ActiveTeam:           in.ActiveTeam,
		PhaseDeadlineMS:      in.PhaseDeadlineMS,
		TeamScores:           in.TeamScores,
		PlayerScores:         in.PlayerScores,
		Players:              maskPlayers(in.Players, viewer),
		Chat:                 in.VisibleChat,
	}

	v.Teams = make(map[types.Team]TeamView, len(in.Teams))
	for key, team := range in.Teams {
		tv := TeamView{
			Name:             team.Name,
			Captain:          team.Captain,
			CaptainVoteReady: team.CaptainVoteReady,
			TeamNamingReady:  team.TeamNamingReady,
		}
		sameTeam := viewer.Team != nil && *viewer.Team == key
		if viewer.IsHost || viewer.IsSpectator || sameTeam {
			tv.VoteTally = team.VoteTally
		}
		if sameTeam {
			tv.OwnBallot = team.Ballots[viewer.PeerID]
		}
		v.Teams[key] = tv
	}

	eligible := viewer.IsHost || viewer.IsSpectator
	if !eligible && in.EligibleSubmitters != nil {
		_, eligible = in.EligibleSubmitters[viewer.PeerID]
	}
	if in.CurrentQuestion != nil {
		q := *in.CurrentQuestion
		if in.Phase == types.PhaseQuestion && !eligible {
			q.Options = nil
			q.CorrectIndex = -1
		}
		if in.Phase != types.PhaseQuestion && in.Phase != types.PhaseReveal {
			q.CorrectIndex = -1
		}
		v.Question = &q
	}

	if in.Phase == types.PhaseQuestion {
		v.AnswerProgress = &AnswerProgress{Answered: in.AnsweredCount, Total: in.EligibleCount}
	}

	if in.LastReveal != nil {
		v.LastReveal = maskReveal(in.LastReveal, in.GameMode, viewer)
	}
	if in.GameMode == types.ModeFFA && in.OwnFFAReveal != nil && !viewer.IsHost {
		v.OwnFFAReveal = in.OwnFFAReveal
	}
	if in.GameMode == types.ModeChaos && (viewer.IsHost || viewer.IsSpectator || viewer.Team != nil) {
		v.ChaosSubmitCounts = in.ChaosSubmitCounts
	}

	if in.Phase == types.PhaseQuestion && in.SkipStatus != "" && in.SkipStatus != "idle" {
		v.SkipRequest = &SkipSummary{Status: in.SkipStatus, Requesters: in.SkipRequesterCount, MessageID: in.SkipMessageID}
	}

	if in.Phase == types.PhaseResults {
		v.ResultsPublic = maskPlayers(in.ResultsPublic, viewer)
		if viewer.IsHost {
			v.HostDetails = in.ResultsHostDetail
		}
	}

	return v
}

// maskPlayers implements §4.8's "players list... masked per §3": every
// viewer sees who's in the room, but per-peer cumulative stats (answers,
// correct/wrong/skipped counts, response times, points) are only shown
// for the host (who gets the full breakdown via hostDetails at results
// anyway) and for a player's own entry. Everyone else's entry keeps its
// identity/team/role fields but reports a zero-value stats block.
func maskPlayers(players []types.PlayerView, viewer ViewerContext) []types.PlayerView {
	if viewer.IsHost {
		return players
	}
	out := make([]types.PlayerView, len(players))
	for i, p := range players {
		if p.PeerID != viewer.PeerID {
			p.Stats = types.PlayerStats{}
		}
		out[i] = p
	}
	return out
}

// maskReveal hides team/individual detail a non-host/spectator viewer
// shouldn't see, while always exposing the correct-index and overall
// outcome.
func maskReveal(r *types.RevealRecord, mode types.GameMode, viewer ViewerContext) *types.RevealRecord {
	if viewer.IsHost || viewer.IsSpectator {
		return r
	}
	masked := *r
	switch mode {
	case types.ModeChaos:
		if viewer.Team == nil {
			masked.ChaosTeamResults = nil
		}
	case types.ModeFFA:
		masked.PlayerResults = nil
	}
	return &masked
}
