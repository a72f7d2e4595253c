// Phase state machine transitions that aren't scoring (§4.2): lobby
// start, team-reveal, the move into results, and new-game. Captain vote
// and team naming get their own files; answer.go owns the
// question/reveal loop.
package room

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/events"
	"github.com/Unkno394/QuizBattleee/internal/store"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

func marshalTeamScores(scores map[types.Team]int) string {
	b, _ := json.Marshal(scores)
	return string(b)
}

func marshalPlayerStats(r *Room) string {
	out := make(map[string]types.PlayerStats, len(r.Players))
	for peerID, p := range r.Players {
		out[peerID] = p.Stats
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// HandleStartGame implements the lobby -> (team-reveal | question[0])
// transition (§4.2).
func (ra *RoomActor) HandleStartGame(hostPeerID string) {
	r := ra.room
	host, ok := r.Players[hostPeerID]
	if !ok || !host.IsHost {
		return
	}
	if r.Phase != PhaseLobby {
		return
	}
	if len(r.Questions) == 0 {
		return
	}

	if r.Config.GameMode == types.ModeFFA {
		r.CurrentQuestionIndex = 0
		ra.beginQuestionPhase()
		return
	}

	ra.assignTeams()
	r.Phase = PhaseTeamReveal
	r.PhaseDeadlineMS = ra.now() + TeamRevealTime.Milliseconds()
	ra.scheduleTimer(TimerTeamReveal, TeamRevealTime, ra.onTeamRevealTimer)
	ra.broadcastAndPersist(false, false)
}

// assignTeams splits the non-host, non-spectator lobby into two evenly
// sized teams using the actor's injectable RNG (spec.md's "Captain
// election randomness" design note applies equally here: team
// assignment is also tie-break-sensitive for test determinism). Players
// are sorted by peer-id before the shuffle so the result depends only on
// the RNG sequence, never on map iteration order.
func (ra *RoomActor) assignTeams() {
	r := ra.room
	players := r.NonHostNonSpectatorPlayers()
	sort.Slice(players, func(i, j int) bool { return players[i].PeerID < players[j].PeerID })
	for i := len(players) - 1; i > 0; i-- {
		j := ra.deps.RNG.Intn(i + 1)
		players[i], players[j] = players[j], players[i]
	}
	for i, p := range players {
		team := types.TeamA
		if i%2 == 1 {
			team = types.TeamB
		}
		p.Team = &team
	}
}

func (ra *RoomActor) onTeamRevealTimer() {
	r := ra.room
	if r.Phase != PhaseTeamReveal {
		return
	}
	if r.Config.GameMode == types.ModeClassic {
		ra.enterCaptainVote()
		return
	}
	ra.enterTeamNaming()
}

// enterResults finalizes a completed game: appends the result to the
// durable store (spec.md §1's "append completed game result" capability)
// and publishes a notification, then parks in `results` awaiting
// host "new-game".
func (ra *RoomActor) enterResults() {
	r := ra.room
	ra.clearTimers()
	r.Phase = PhaseResults
	r.PhaseDeadlineMS = 0

	ctx := ra.ctx
	if ra.deps.Durable != nil {
		result := store.GameResult{
			RoomID:      r.Code,
			Topic:       r.Config.Topic,
			GameMode:    string(r.Config.GameMode),
			TeamScores:  marshalTeamScores(r.TeamScores),
			PlayerStats: marshalPlayerStats(r),
			FinishedAt:  time.UnixMilli(ra.now()).UTC(),
		}
		if r.Config.GameMode != types.ModeFFA {
			result.WinningTeam = winningTeam(r.TeamScores)
		}
		if err := ra.deps.Durable.AppendResult(ctx, result); err != nil {
			ra.logger.Warn("append game result failed", zap.Error(err))
		}
	}
	go ra.deps.Publisher.Publish(context.Background(), events.Notification{
		Type:   events.NotifyGameResultAppended,
		RoomID: r.Code,
	})

	ra.broadcastAndPersist(true, true)
}

func winningTeam(scores map[types.Team]int) string {
	if scores[types.TeamA] > scores[types.TeamB] {
		return string(types.TeamA)
	}
	if scores[types.TeamB] > scores[types.TeamA] {
		return string(types.TeamB)
	}
	return ""
}

// HandleNewGame implements `results ──host "new-game"──▶ lobby`.
func (ra *RoomActor) HandleNewGame(hostPeerID string) {
	r := ra.room
	host, ok := r.Players[hostPeerID]
	if !ok || !host.IsHost {
		return
	}
	if r.Phase != PhaseResults {
		return
	}
	r.resetGameToLobby("")
	ra.broadcastAndPersist(true, false)
}
