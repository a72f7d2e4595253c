// broadcastAndPersist is the single choke point every mutating handler
// calls at the end of its turn (§4.8, §4.10): it bumps the state
// version, builds one viewer-scoped `state-sync` frame per connection,
// sends it, then persists the room per the two-tier policy.
package room

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/projection"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// buildProjectionInput assembles the unmasked broadcast input from live
// room state (§4.8).
func (ra *RoomActor) buildProjectionInput() projection.Input {
	r := ra.room
	players := make([]types.PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.View())
	}
	teams := make(map[types.Team]types.TeamState, len(r.Teams))
	for key, ts := range r.Teams {
		teams[key] = *ts
	}

	in := projection.Input{
		StateVersion:         r.StateVersion(),
		ServerTimeMS:         ra.now(),
		Phase:                r.Phase,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		QuestionCount:        len(r.Questions),
		GameMode:             r.Config.GameMode,
		Difficulty:           r.Config.Difficulty,
		Topic:                r.Config.Topic,
		ActiveTeam:           r.ActiveTeam,
		PhaseDeadlineMS:      r.PhaseDeadlineMS,
		TeamScores:           r.TeamScores,
		PlayerScores:         r.PlayerScores,
		Teams:                teams,
		Players:              players,
		CurrentQuestion:      r.currentQuestion(),
		LastReveal:           r.LastReveal,
		SkipStatus:           r.SkipStatus,
		SkipRequesterCount:   len(r.SkipRequesters),
		SkipMessageID:        r.SkipMessageID,
	}

	if r.Phase == types.PhaseQuestion {
		eligible := r.EligibleSubmitters()
		in.EligibleSubmitters = eligible
		in.EligibleCount = len(eligible)
		switch r.Config.GameMode {
		case types.ModeClassic:
			if r.ActiveAnswer != nil {
				in.AnsweredCount = 1
			}
		default:
			in.AnsweredCount = len(r.Submissions)
		}
	}

	if r.Config.GameMode == types.ModeChaos {
		counts := make(map[types.Team]int, 2)
		for _, team := range []types.Team{types.TeamA, types.TeamB} {
			n := 0
			for _, p := range r.TeamPlayers(team) {
				if _, ok := r.Submissions[p.PeerID]; ok {
					n++
				}
			}
			counts[team] = n
		}
		in.ChaosSubmitCounts = counts
	}

	if r.Phase == types.PhaseResults {
		in.ResultsPublic = players
		stats := make(map[string]types.PlayerStats, len(r.Players))
		for peerID, p := range r.Players {
			stats[peerID] = p.Stats
		}
		in.ResultsHostDetail = &projection.HostDetail{
			PlayerStats:     stats,
			QuestionHistory: r.QuestionHistory,
		}
	}

	return in
}

// ownFFAReveal finds peerID's own result in the last FFA reveal, if any.
func ownFFAReveal(r *Room, peerID string) *types.PlayerResult {
	if r.LastReveal == nil || r.LastReveal.Mode != types.ModeFFA {
		return nil
	}
	for i := range r.LastReveal.PlayerResults {
		if r.LastReveal.PlayerResults[i].PeerID == peerID {
			return &r.LastReveal.PlayerResults[i]
		}
	}
	return nil
}

func viewerContext(p *PlayerConnection) projection.ViewerContext {
	return projection.ViewerContext{
		PeerID:      p.PeerID,
		IsHost:      p.IsHost,
		IsSpectator: p.IsSpectator,
		Team:        p.Team,
	}
}

// broadcastAndPersist bumps the version, sends every connection its own
// `state-sync` frame, and runs the persistence tiering policy (§4.10).
func (ra *RoomActor) broadcastAndPersist(forceHot, forceDurable bool) {
	start := time.Now()
	r := ra.room
	r.BumpVersion()
	in := ra.buildProjectionInput()

	for _, p := range r.Players {
		if p.Socket == nil {
			continue
		}
		viewer := viewerContext(p)
		in.VisibleChat = VisibleChat(r, p)
		in.OwnFFAReveal = ownFFAReveal(r, p.PeerID)
		view := projection.Project(in, viewer)
		body, err := json.Marshal(view)
		if err != nil {
			ra.logger.Error("marshal state-sync view failed", zap.Error(err))
			continue
		}
		frame := types.StateSyncFrame{Type: "state-sync", View: body}
		if err := p.Socket.Send(frame); err != nil {
			if ra.deps.Metrics != nil {
				ra.deps.Metrics.SendFailures.Inc()
			}
		}
	}

	if ra.deps.Metrics != nil {
		ra.deps.Metrics.BroadcastLatency.Observe(float64(time.Since(start).Milliseconds()))
	}

	ra.persist(ra.ctx, forceHot, forceDurable)
}
