// Host disconnect pause and manual pause (§4.7).
package room

import (
	"context"
	"time"

	"github.com/Unkno394/QuizBattleee/internal/events"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// pausablePhases are the phases a host disconnect can suspend; lobby
// included since a host can vanish before start-game too.
var pausablePhases = map[types.Phase]bool{
	PhaseLobby:       true,
	PhaseTeamReveal:  true,
	PhaseCaptainVote: true,
	PhaseTeamNaming:  true,
	PhaseQuestion:    true,
	PhaseReveal:      true,
}

// manualPausablePhases excludes lobby: there's nothing to pause before a
// game has started.
var manualPausablePhases = map[types.Phase]bool{
	PhaseTeamReveal:  true,
	PhaseCaptainVote: true,
	PhaseTeamNaming:  true,
	PhaseQuestion:    true,
	PhaseReveal:      true,
}

// timerForPhase maps a resumable phase back to the timer key/handler
// that drives it, so resumeFromPause can rearm it at the remembered
// remaining-ms.
func (ra *RoomActor) timerForPhase(phase types.Phase) (string, func()) {
	switch phase {
	case PhaseTeamReveal:
		return TimerTeamReveal, ra.onTeamRevealTimer
	case PhaseCaptainVote:
		return TimerCaptainVote, ra.onCaptainVoteTimer
	case PhaseTeamNaming:
		return TimerTeamNaming, ra.onTeamNamingTimer
	case PhaseQuestion:
		return TimerQuestion, ra.onQuestionTimer
	case PhaseReveal:
		return TimerReveal, ra.onRevealTimer
	default:
		return "", nil
	}
}

// pauseForHostDisconnect implements §4.7's host-reconnect pause. Returns
// false if the current phase isn't pausable (caller falls back to
// reassigning host immediately instead).
func (ra *RoomActor) pauseForHostDisconnect(disconnectedHostName string) bool {
	r := ra.room
	if !pausablePhases[r.Phase] {
		return false
	}
	remaining := int64(0)
	if r.PhaseDeadlineMS > 0 {
		remaining = clampRemaining(r.PhaseDeadlineMS - ra.now())
	}
	ra.clearTimers()
	r.Paused = &types.PausedState{
		Phase:                r.Phase,
		RemainingMs:          remaining,
		DisconnectedHostName: disconnectedHostName,
	}
	r.Phase = PhaseHostReconnect
	r.PhaseDeadlineMS = ra.now() + HostReconnectWait.Milliseconds()
	ra.scheduleTimer(TimerHostReconnect, HostReconnectWait, ra.onHostReconnectTimeout)
	return true
}

// resumeFromPause restores the phase recorded in r.Paused (host-reconnect
// reclaim or manual-pause resume), rearming its timer at the remembered
// remaining-ms (P8).
func (ra *RoomActor) resumeFromPause() {
	r := ra.room
	if r.Paused == nil {
		return
	}
	paused := r.Paused
	ra.cancelTimer(TimerHostReconnect)
	r.Phase = paused.Phase
	r.Paused = nil

	if paused.Phase == PhaseLobby {
		r.PhaseDeadlineMS = 0
		ra.broadcastAndPersist(true, false)
		return
	}

	remaining := paused.RemainingMs
	if remaining <= 0 {
		remaining = MinTimerDelay.Milliseconds()
	}
	r.PhaseDeadlineMS = ra.now() + remaining
	if key, fn := ra.timerForPhase(paused.Phase); key != "" {
		ra.scheduleTimer(key, time.Duration(remaining)*time.Millisecond, fn)
		if paused.Phase == PhaseCaptainVote {
			ra.armAutoCaptainTimers()
		}
	}
	ra.broadcastAndPersist(true, false)
}

// removeHostSeat drops a disconnected host's ghost seat (its socket is
// already nil; pauseForHostDisconnect left it in r.Players so a reclaim
// could reuse it) entirely from the room, without broadcasting — used by
// onHostReconnectTimeout right before electing a replacement, so the old
// host is demoted and gone rather than lingering as a second is_host
// seat (invariant 2). Mirrors the original's assign_new_host clearing
// every player's is_host before electing the candidate.
func (ra *RoomActor) removeHostSeat(peerID string) {
	r := ra.room
	p, ok := r.Players[peerID]
	if !ok {
		return
	}
	delete(r.Players, peerID)
	if p.PlayerToken != "" {
		delete(r.PlayerTokens, p.PlayerToken)
	}
	delete(r.Submissions, peerID)
	if r.ActiveAnswer != nil && r.ActiveAnswer.ByPeerID == peerID {
		r.ActiveAnswer = nil
	}
	delete(r.SkipRequesters, peerID)
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
}

// onHostReconnectTimeout demotes the disconnected host's ghost seat,
// promotes the next available non-spectator to host, and resumes the
// paused phase (§4.7).
func (ra *RoomActor) onHostReconnectTimeout() {
	r := ra.room
	if r.Phase != PhaseHostReconnect {
		return
	}
	ra.removeHostSeat(r.HostPeerID)

	var promoted *PlayerConnection
	for _, p := range r.Players {
		if !p.IsHost && !p.IsSpectator {
			promoted = p
			break
		}
	}
	if promoted != nil {
		promoted.IsHost = true
		promoted.Team = nil
		promoted.IsCaptain = false
		r.HostPeerID = promoted.PeerID
		go ra.deps.Publisher.Publish(context.Background(), events.Notification{
			Type:   events.NotifyHostReassigned,
			RoomID: r.Code,
		})
	} else {
		r.HostPeerID = ""
	}

	if len(r.Players) == 0 {
		ra.forceFinalPersist(ra.ctx)
		if ra.onEmpty != nil {
			ra.onEmpty(ra.RoomID)
		}
		return
	}
	ra.resumeFromPause()
}

// HandleTogglePause implements host-initiated manual pause/resume (§4.7).
func (ra *RoomActor) HandleTogglePause(hostPeerID string) {
	r := ra.room
	host, ok := r.Players[hostPeerID]
	if !ok || !host.IsHost {
		return
	}
	if r.Phase == PhaseManualPause {
		ra.resumeFromPause()
		return
	}
	if !manualPausablePhases[r.Phase] {
		return
	}
	remaining := int64(0)
	if r.PhaseDeadlineMS > 0 {
		remaining = clampRemaining(r.PhaseDeadlineMS - ra.now())
	}
	ra.clearTimers()
	r.Paused = &types.PausedState{
		Phase:             r.Phase,
		RemainingMs:       remaining,
		ManualPauseByName: host.Name,
	}
	r.Phase = PhaseManualPause
	r.PhaseDeadlineMS = 0
	ra.broadcastAndPersist(false, false)
}
