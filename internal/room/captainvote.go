// Captain vote subflow (§4.4), classic mode only.
package room

import (
	"sort"

	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

func (ra *RoomActor) enterCaptainVote() {
	r := ra.room
	r.Phase = PhaseCaptainVote
	r.PhaseDeadlineMS = ra.now() + CaptainVoteTime.Milliseconds()
	ra.scheduleTimer(TimerCaptainVote, CaptainVoteTime, ra.onCaptainVoteTimer)
	ra.armAutoCaptainTimers()
	ra.broadcastAndPersist(false, false)
	ra.maybeFinalizeCaptainVote()
}

// armAutoCaptainTimers arms the 3s auto-captain shortcut for any team
// with exactly one member that isn't ready yet (§4.2).
func (ra *RoomActor) armAutoCaptainTimers() {
	r := ra.room
	for _, team := range []types.Team{types.TeamA, types.TeamB} {
		ts := r.Teams[team]
		if ts.CaptainVoteReady {
			continue
		}
		if len(r.TeamPlayers(team)) == 1 {
			t := team
			ra.scheduleTimer(autoCaptainKey(t), AutoCaptainSingleMemberDelay, func() { ra.onAutoCaptainTimer(t) })
		}
	}
}

func autoCaptainKey(t types.Team) string { return TimerCaptainAuto + ":" + string(t) }

func (ra *RoomActor) onAutoCaptainTimer(team types.Team) {
	r := ra.room
	if r.Phase != PhaseCaptainVote {
		return
	}
	ts := r.Teams[team]
	if ts.CaptainVoteReady {
		return
	}
	members := r.TeamPlayers(team)
	if len(members) != 1 {
		return
	}
	ts.Captain = members[0].PeerID
	members[0].IsCaptain = true
	ts.CaptainVoteReady = true
	ra.broadcastAndPersist(false, false)
	ra.maybeFinalizeCaptainVote()
}

// teamReadyForCaptainVote implements §4.4's readiness definition: empty,
// single-member-with-captain-chosen, or every current member has voted.
func (r *Room) teamReadyForCaptainVote(team types.Team) bool {
	members := r.TeamPlayers(team)
	if len(members) == 0 {
		return true
	}
	ts := r.Teams[team]
	if len(members) == 1 {
		return ts.Captain != ""
	}
	for _, m := range members {
		if _, voted := ts.Ballots[m.PeerID]; !voted {
			return false
		}
	}
	return true
}

// resolveCaptain picks the captain for a ready team: the plurality
// vote-getter, tie-broken uniformly over tied current members, never
// overwriting an already-set captain. A team with members but no vote
// for a current member gets a uniformly random member as captain.
func (ra *RoomActor) resolveCaptain(team types.Team) {
	r := ra.room
	ts := r.Teams[team]
	if ts.Captain != "" {
		return
	}
	members := r.TeamPlayers(team)
	if len(members) == 0 {
		return
	}
	maxVotes := -1
	for _, c := range ts.VoteTally {
		if c > maxVotes {
			maxVotes = c
		}
	}
	candidates := make([]string, 0)
	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m.PeerID] = struct{}{}
	}
	for candidate, count := range ts.VoteTally {
		if count != maxVotes {
			continue
		}
		if _, stillMember := memberSet[candidate]; !stillMember {
			continue
		}
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		// nobody voted for a current member (e.g. all abstained)
		for _, m := range members {
			candidates = append(candidates, m.PeerID)
		}
		sort.Strings(candidates)
	}
	chosen := candidates[0]
	if len(candidates) > 1 {
		chosen = rng.PickString(ra.deps.RNG, candidates)
	}
	ts.Captain = chosen
	if p, ok := r.Players[chosen]; ok {
		p.IsCaptain = true
	}
}

// HandleVoteCaptain implements `vote-captain` (§4.4): one ballot per
// voter, recastable, decrementing the prior candidate's tally.
func (ra *RoomActor) HandleVoteCaptain(voterPeerID, candidatePeerID string) {
	r := ra.room
	if r.Phase != PhaseCaptainVote {
		return
	}
	voter, ok := r.Players[voterPeerID]
	if !ok || voter.IsHost || voter.Team == nil || voterPeerID == candidatePeerID {
		return
	}
	team := *voter.Team
	ts := r.Teams[team]
	if ts.CaptainVoteReady {
		return
	}
	candidate, ok := r.Players[candidatePeerID]
	if !ok || candidate.Team == nil || *candidate.Team != team {
		return
	}

	if prior, voted := ts.Ballots[voterPeerID]; voted {
		ts.VoteTally[prior]--
		if ts.VoteTally[prior] <= 0 {
			delete(ts.VoteTally, prior)
		}
	}
	ts.Ballots[voterPeerID] = candidatePeerID
	ts.VoteTally[candidatePeerID]++

	if r.teamReadyForCaptainVote(team) {
		ts.CaptainVoteReady = true
		ra.resolveCaptain(team)
		ra.cancelTimer(autoCaptainKey(team))
	}
	ra.broadcastAndPersist(false, false)
	ra.maybeFinalizeCaptainVote()
}

// maybeFinalizeCaptainVote advances to team-naming once both teams are
// ready (P7).
func (ra *RoomActor) maybeFinalizeCaptainVote() {
	r := ra.room
	if r.Phase != PhaseCaptainVote {
		return
	}
	if !r.teamReadyForCaptainVote(types.TeamA) || !r.teamReadyForCaptainVote(types.TeamB) {
		return
	}
	ra.enterTeamNaming()
}

func (ra *RoomActor) onCaptainVoteTimer() {
	r := ra.room
	if r.Phase != PhaseCaptainVote {
		return
	}
	// Teams that timed out without reaching readiness still move on; a
	// team nobody voted in gets a random member as captain, so only an
	// empty team enters team-naming captain-less.
	for _, team := range []types.Team{types.TeamA, types.TeamB} {
		r.Teams[team].CaptainVoteReady = true
		ra.resolveCaptain(team)
	}
	ra.enterTeamNaming()
}
