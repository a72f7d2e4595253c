// Team naming subflow (§4.5).
package room

import (
	"github.com/Unkno394/QuizBattleee/internal/types"
)

func (ra *RoomActor) enterTeamNaming() {
	r := ra.room
	r.Phase = PhaseTeamNaming
	r.PhaseDeadlineMS = ra.now() + TeamNamingTime.Milliseconds()
	for _, team := range []types.Team{types.TeamA, types.TeamB} {
		r.Teams[team].TeamNamingReady = r.autoReadyForTeamNaming(team)
	}
	ra.scheduleTimer(TimerTeamNaming, TeamNamingTime, ra.onTeamNamingTimer)
	ra.broadcastAndPersist(false, false)
	ra.maybeFinalizeTeamNaming()
}

// autoReadyForTeamNaming implements §4.5's auto-ready rules: an empty
// team is ready, and in classic a team lacking a captain is also ready
// (nobody eligible to name it).
func (r *Room) autoReadyForTeamNaming(team types.Team) bool {
	if len(r.TeamPlayers(team)) == 0 {
		return true
	}
	if r.Config.GameMode == types.ModeClassic && r.Teams[team].Captain == "" {
		return true
	}
	return false
}

// canNameTeam reports whether peerID may submit a name for their team:
// the captain in classic, any non-host member in chaos.
func (r *Room) canNameTeam(p *PlayerConnection) bool {
	if p.IsHost || p.Team == nil {
		return false
	}
	switch r.Config.GameMode {
	case types.ModeClassic:
		ts := r.Teams[*p.Team]
		return ts.Captain == p.PeerID
	default:
		return true
	}
}

func (ra *RoomActor) setTeamName(team types.Team, name string) {
	r := ra.room
	ts := r.Teams[team]
	if ts.Name != "" {
		delete(r.UsedTeamNames, ts.Name)
	}
	ts.Name = name
	r.UsedTeamNames[name] = struct{}{}
	ts.TeamNamingReady = true
}

// HandleSetTeamName implements `set-team-name` (§4.5).
func (ra *RoomActor) HandleSetTeamName(peerID, rawName string) {
	r := ra.room
	if r.Phase != PhaseTeamNaming {
		return
	}
	p, ok := r.Players[peerID]
	if !ok || !r.canNameTeam(p) {
		return
	}
	team := *p.Team
	if r.Teams[team].TeamNamingReady {
		return
	}
	name := SanitizeTeamName(rawName)
	if name == "" {
		return
	}
	ra.setTeamName(team, name)
	ra.broadcastAndPersist(false, false)
	ra.maybeFinalizeTeamNaming()
}

// HandleRandomTeamName implements `random-team-name` (§4.5).
func (ra *RoomActor) HandleRandomTeamName(peerID string) {
	r := ra.room
	if r.Phase != PhaseTeamNaming {
		return
	}
	p, ok := r.Players[peerID]
	if !ok || !r.canNameTeam(p) {
		return
	}
	team := *p.Team
	if r.Teams[team].TeamNamingReady {
		return
	}
	name := RandomUnusedTeamName(ra.deps.RNG, r.UsedTeamNames)
	ra.setTeamName(team, name)
	ra.broadcastAndPersist(false, false)
	ra.maybeFinalizeTeamNaming()
}

func (ra *RoomActor) maybeFinalizeTeamNaming() {
	r := ra.room
	if r.Phase != PhaseTeamNaming {
		return
	}
	if !r.Teams[types.TeamA].TeamNamingReady || !r.Teams[types.TeamB].TeamNamingReady {
		return
	}
	ra.finalizeTeamNaming()
}

func (ra *RoomActor) onTeamNamingTimer() {
	r := ra.room
	if r.Phase != PhaseTeamNaming {
		return
	}
	ra.finalizeTeamNaming()
}

// finalizeTeamNaming enters `question` at index 0 with scores zeroed
// (§4.5).
func (ra *RoomActor) finalizeTeamNaming() {
	r := ra.room
	r.CurrentQuestionIndex = 0
	r.ActiveTeam = types.TeamA
	r.TeamScores = map[types.Team]int{types.TeamA: 0, types.TeamB: 0}
	ra.beginQuestionPhase()
}
