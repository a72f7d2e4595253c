// Connection cleanup on disconnect (§4.9).
package room

import (
	"context"

	"github.com/google/uuid"

	"github.com/Unkno394/QuizBattleee/internal/events"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

func presenceGraceKey(peerID string) string { return "presenceGrace:" + peerID }

func isLivePhase(phase types.Phase) bool {
	switch phase {
	case PhaseTeamReveal, PhaseCaptainVote, PhaseTeamNaming, PhaseQuestion, PhaseReveal:
		return true
	default:
		return false
	}
}

// Disconnect is called by the gateway when a connection's read loop
// ends. A stale disconnect (the socket no longer matches the current
// connection for peerID, i.e. a handoff already rebound it) is ignored
// except for a metric, per §4.1.
func (ra *RoomActor) Disconnect(peerID string, sock Socket) {
	ra.post(func() { ra.onSocketClosed(peerID, sock) })
}

func (ra *RoomActor) onSocketClosed(peerID string, sock Socket) {
	r := ra.room
	p, ok := r.Players[peerID]
	if !ok || p.Socket != sock {
		if ra.deps.Metrics != nil {
			ra.deps.Metrics.CommandReject.WithLabelValues("stale_disconnect").Inc()
		}
		return
	}
	if ra.deps.Metrics != nil {
		ra.deps.Metrics.DisconnectTotal.Inc()
	}
	p.Socket = nil

	if p.IsHost || peerID == r.HostPeerID {
		if ra.pauseForHostDisconnect(p.Name) {
			ra.broadcastAndPersist(true, false)
			return
		}
		ra.reassignHost(peerID)
		ra.runCleanup(peerID, true)
		return
	}

	// Non-host: give a handoff reconnect PresenceDisconnectGrace before
	// removing the seat and announcing departure (§4.9's debounce note).
	ra.scheduleTimer(presenceGraceKey(peerID), PresenceDisconnectGrace, func() {
		ra.runCleanup(peerID, false)
	})
}

// reassignHost promotes the first available non-spectator, non-excluded
// player to host when a host-reconnect pause isn't possible (§4.7).
func (ra *RoomActor) reassignHost(excludePeerID string) {
	r := ra.room
	for id, p := range r.Players {
		if id == excludePeerID || p.IsSpectator {
			continue
		}
		p.IsHost = true
		p.Team = nil
		p.IsCaptain = false
		r.HostPeerID = id
		go ra.deps.Publisher.Publish(context.Background(), events.Notification{
			Type:   events.NotifyHostReassigned,
			RoomID: r.Code,
		})
		return
	}
	r.HostPeerID = ""
}

// runCleanup performs §4.9's steps 1-2-3 and 5-11: full removal of a
// departed connection. wasHost suppresses the presence message (a host
// departure either paused for reconnect, above, or is covered by the
// host-reassigned notification instead).
func (ra *RoomActor) runCleanup(peerID string, wasHost bool) {
	r := ra.room
	p, ok := r.Players[peerID]
	if !ok {
		return
	}
	name := p.Name
	team := p.Team
	wasCaptain := p.IsCaptain

	// 1. remove player; drop token mapping; drop pending submission;
	// drop from skip-request set and recompute its status/message.
	delete(r.Players, peerID)
	if p.PlayerToken != "" {
		delete(r.PlayerTokens, p.PlayerToken)
	}
	delete(r.Submissions, peerID)
	if r.ActiveAnswer != nil && r.ActiveAnswer.ByPeerID == peerID {
		r.ActiveAnswer = nil
	}
	delete(r.SkipRequesters, peerID)
	r.refreshSkipStatus(ra)

	// 2. clear ballots cast by the departed, and votes cast for them.
	for _, ts := range r.Teams {
		if candidate, voted := ts.Ballots[peerID]; voted {
			ts.VoteTally[candidate]--
			if ts.VoteTally[candidate] <= 0 {
				delete(ts.VoteTally, candidate)
			}
			delete(ts.Ballots, peerID)
		}
		delete(ts.VoteTally, peerID)
	}

	// 3. last connection gone -> evict the room entirely.
	if len(r.Players) == 0 {
		ra.forceFinalPersist(ra.ctx)
		if ra.onEmpty != nil {
			ra.onEmpty(ra.RoomID)
		}
		return
	}

	// 5. captain slot.
	if wasCaptain && team != nil {
		ra.reassignCaptainAfterLoss(*team, peerID)
	}

	// 6. lobby: drop team assignments of all non-host players.
	if r.Phase == PhaseLobby {
		for _, pl := range r.Players {
			if !pl.IsHost {
				pl.Team = nil
			}
		}
	}

	// 7. not-enough-players reset.
	ra.checkNotEnoughPlayers()

	// 8/9/10. re-check readiness/finalization for the phase we're still in.
	switch r.Phase {
	case PhaseCaptainVote:
		ra.armAutoCaptainTimers()
		ra.maybeFinalizeCaptainVote()
	case PhaseTeamNaming:
		for _, t := range []types.Team{types.TeamA, types.TeamB} {
			if r.autoReadyForTeamNaming(t) {
				r.Teams[t].TeamNamingReady = true
			}
		}
		ra.maybeFinalizeTeamNaming()
	case PhaseQuestion:
		if r.Config.GameMode != types.ModeClassic && r.AllSubmitted() {
			ra.finalizeQuestion(false)
		}
	}

	// 11. broadcast+persist; presence notice unless the departed was host.
	if !wasHost {
		r.appendChat(types.ChatMessage{
			ID:          uuid.NewString(),
			Text:        name + " left the room.",
			Visibility:  "all",
			Kind:        "presence",
			CreatedAtMS: ra.now(),
		})
	}
	ra.broadcastAndPersist(false, false)
}

// reassignCaptainAfterLoss implements §4.9 step 5: null the vacated
// slot; in team-naming, promote a remaining teammate or mark the team
// ready if none remain.
func (ra *RoomActor) reassignCaptainAfterLoss(team types.Team, lostPeerID string) {
	r := ra.room
	ts := r.Teams[team]
	if ts.Captain == lostPeerID {
		ts.Captain = ""
	}
	if p, ok := r.Players[lostPeerID]; ok {
		p.IsCaptain = false
	}
	if r.Phase != PhaseTeamNaming {
		return
	}
	members := r.TeamPlayers(team)
	if len(members) == 0 {
		ts.TeamNamingReady = true
		return
	}
	if r.Config.GameMode == types.ModeClassic && ts.Captain == "" {
		ts.Captain = members[0].PeerID
		members[0].IsCaptain = true
	}
}

// checkNotEnoughPlayers implements §4.9 step 7: classic/chaos only,
// during a live phase, at least two teams must each have a member and
// at least two players must be active overall.
func (ra *RoomActor) checkNotEnoughPlayers() {
	r := ra.room
	if r.Config.GameMode == types.ModeFFA || !isLivePhase(r.Phase) {
		return
	}
	teamsWithMembers := 0
	for _, t := range []types.Team{types.TeamA, types.TeamB} {
		if len(r.TeamPlayers(t)) >= 1 {
			teamsWithMembers++
		}
	}
	active := len(r.NonHostNonSpectatorPlayers())
	if teamsWithMembers >= 2 && active >= 2 {
		return
	}
	ra.clearTimers()
	r.resetGameToLobby("")
	r.appendChat(types.ChatMessage{
		ID:          uuid.NewString(),
		Text:        "Not enough players to continue; returning to lobby.",
		Visibility:  "all",
		Kind:        "system",
		CreatedAtMS: ra.now(),
	})
}
