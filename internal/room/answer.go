// Answer/scoring pipeline for all three game modes (§4.3, P4). Every
// finalize path stores `answeredAt` at submission time and scores
// against `deadline - answeredAt`, which is the fix spec.md's Open
// Question calls for: the original source recomputes remaining-ms from
// `question_ends_at - now_ms()` at finalize time, which goes to zero
// when finalize happens via timer expiry rather than immediate
// submission. This module never does that; classic, chaos and ffa all
// compute remaining-ms identically, off the stored submission time.
package room

import (
	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// speedBonus implements P4's bonus table.
func speedBonus(remainingMs, totalMs int64) int {
	if totalMs <= 0 {
		return 0
	}
	ratio := float64(remainingMs) / float64(totalMs)
	switch {
	case ratio >= 0.67:
		return 2
	case ratio >= 0.34:
		return 1
	default:
		return 0
	}
}

// pointsFor implements P4's points law in full: incorrect scores 0.
func pointsFor(isCorrect bool, remainingMs, totalMs int64) (base, bonus, points int) {
	if !isCorrect {
		return 0, 0, 0
	}
	base = BaseCorrectPoints
	bonus = speedBonus(remainingMs, totalMs)
	return base, bonus, base + bonus
}

func clampRemaining(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// updateAnswerStats records one answerer's response into their cumulative
// stats (§3's per-peer stats).
func updateAnswerStats(p *PlayerConnection, isCorrect bool, remainingMs, totalMs int64, pointsAwarded int, nowMS int64) {
	p.Stats.Answers++
	if isCorrect {
		p.Stats.Correct++
	} else {
		p.Stats.Wrong++
	}
	responseMs := clampRemaining(totalMs - remainingMs)
	p.Stats.TotalResponseMs += responseMs
	if p.Stats.FastestResponseMs == 0 || responseMs < p.Stats.FastestResponseMs {
		p.Stats.FastestResponseMs = responseMs
	}
	p.Stats.Points += pointsAwarded
	p.Stats.LastAnsweredAtMS = nowMS
}

func updateSkipStats(p *PlayerConnection) {
	p.Stats.Skipped++
}

func (r *Room) currentQuestion() *types.Question {
	if r.CurrentQuestionIndex < 0 || r.CurrentQuestionIndex >= len(r.Questions) {
		return nil
	}
	return &r.Questions[r.CurrentQuestionIndex]
}

// HandleSubmitAnswer implements `submit-answer` for all three modes
// (§4.3, invariant 4's eligibility sets).
func (ra *RoomActor) HandleSubmitAnswer(peerID string, selectedIndex int) {
	r := ra.room
	if r.Phase != PhaseQuestion {
		return
	}
	q := r.currentQuestion()
	if q == nil || selectedIndex < 0 || selectedIndex >= len(q.Options) {
		return
	}
	p, ok := r.Players[peerID]
	if !ok || p.IsHost || p.IsSpectator {
		return
	}

	switch r.Config.GameMode {
	case types.ModeClassic:
		team, ok := r.Teams[r.ActiveTeam]
		if !ok || team.Captain != peerID {
			return
		}
		if r.ActiveAnswer != nil {
			return
		}
		r.ActiveAnswer = &types.ClassicAnswer{
			SelectedIndex: selectedIndex,
			ByPeerID:      peerID,
			ByName:        p.Name,
			AnsweredAtMS:  ra.now(),
		}
	case types.ModeChaos:
		if p.Team == nil || (*p.Team != types.TeamA && *p.Team != types.TeamB) {
			return
		}
		if _, exists := r.Submissions[peerID]; exists {
			return
		}
		r.Submissions[peerID] = types.Submission{SelectedIndex: selectedIndex, AnsweredAtMS: ra.now()}
	case types.ModeFFA:
		if _, exists := r.Submissions[peerID]; exists {
			return
		}
		r.Submissions[peerID] = types.Submission{SelectedIndex: selectedIndex, AnsweredAtMS: ra.now()}
	default:
		return
	}

	if r.AllSubmitted() {
		ra.finalizeQuestion(false)
		return
	}
	ra.broadcastAndPersist(false, false)
}

// onQuestionTimer fires when the question deadline elapses without every
// eligible submitter answering.
func (ra *RoomActor) onQuestionTimer() {
	if ra.room.Phase != PhaseQuestion {
		return
	}
	ra.finalizeQuestion(false)
}

// HandleSkipQuestion implements the host's direct `skip-question` (§4.3).
func (ra *RoomActor) HandleSkipQuestion(hostPeerID string) {
	r := ra.room
	host, ok := r.Players[hostPeerID]
	if !ok || !host.IsHost {
		return
	}
	if r.Phase != PhaseQuestion {
		return
	}
	ra.finalizeQuestion(true)
}

// finalizeQuestion is invoked either by timer expiry or eligibility
// completion (§4.3). It is the one place that transitions out of
// `question`.
func (ra *RoomActor) finalizeQuestion(skippedByHost bool) {
	r := ra.room
	ra.cancelTimer(TimerQuestion)
	q := r.currentQuestion()
	if q == nil {
		ra.enterResults()
		return
	}
	totalMs := QuestionTime.Milliseconds()
	nowMS := ra.now()

	var reveal types.RevealRecord
	switch r.Config.GameMode {
	case types.ModeClassic:
		reveal = ra.finalizeClassic(*q, totalMs, nowMS, skippedByHost)
	case types.ModeChaos:
		reveal = ra.finalizeChaos(*q, totalMs, nowMS, skippedByHost)
	case types.ModeFFA:
		reveal = ra.finalizeFFA(*q, totalMs, nowMS, skippedByHost)
	}

	r.appendQuestionHistory(types.QuestionHistoryEntry{
		ID:             q.ID,
		TimestampMS:    nowMS,
		QuestionNumber: r.CurrentQuestionIndex + 1,
		Difficulty:     q.Difficulty,
		Reveal:         reveal,
	})

	r.Submissions = make(map[string]types.Submission)
	r.ActiveAnswer = nil
	r.SkipRequesters = make(map[string]struct{})
	r.SkipStatus = "idle"
	r.removeSkipMessage()

	// ffa host-skip advances straight to the next question with no
	// reveal phase at all and no reveal record shown (§4.3).
	if r.Config.GameMode == types.ModeFFA && skippedByHost {
		ra.advanceAfterReveal(true)
		return
	}

	r.LastReveal = &reveal
	r.Phase = PhaseReveal
	delay := RevealTime
	if skippedByHost {
		delay = SkipRevealTime
	}
	r.PhaseDeadlineMS = ra.now() + delay.Milliseconds()
	ra.scheduleTimer(TimerReveal, delay, ra.onRevealTimer)
	ra.broadcastAndPersist(false, false)
}

func (ra *RoomActor) finalizeClassic(q types.Question, totalMs, nowMS int64, skippedByHost bool) types.RevealRecord {
	r := ra.room
	team := r.ActiveTeam
	reveal := types.RevealRecord{Mode: types.ModeClassic, CorrectIndex: q.CorrectIndex, Team: &team, SkippedByHost: skippedByHost}

	if r.ActiveAnswer == nil {
		if ts, ok := r.Teams[team]; ok && ts.Captain != "" {
			if p, ok := r.Players[ts.Captain]; ok {
				updateSkipStats(p)
			}
		}
		return reveal
	}

	a := r.ActiveAnswer
	remaining := clampRemaining(r.PhaseDeadlineMS - a.AnsweredAtMS)
	isCorrect := a.SelectedIndex == q.CorrectIndex
	base, bonus, points := pointsFor(isCorrect, remaining, totalMs)
	r.TeamScores[team] += points

	if p, ok := r.Players[a.ByPeerID]; ok {
		updateAnswerStats(p, isCorrect, remaining, totalMs, points, nowMS)
	}

	selected := a.SelectedIndex
	reveal.SelectedIndex = &selected
	reveal.AnsweredByPeerID = a.ByPeerID
	reveal.AnsweredByName = a.ByName
	reveal.IsCorrect = isCorrect
	reveal.BasePoints = base
	reveal.SpeedBonus = bonus
	reveal.TimeRemainingMs = remaining
	reveal.PointsAwarded = points
	return reveal
}

func (ra *RoomActor) finalizeChaos(q types.Question, totalMs, nowMS int64, skippedByHost bool) types.RevealRecord {
	r := ra.room
	reveal := types.RevealRecord{Mode: types.ModeChaos, CorrectIndex: q.CorrectIndex, SkippedByHost: skippedByHost}
	results := make(map[types.Team]types.ChaosTeamResult, 2)

	for _, team := range []types.Team{types.TeamA, types.TeamB} {
		members := r.TeamPlayers(team)
		if len(members) == 0 {
			continue
		}
		tally := make(map[int]int)
		var latestAtMS int64
		answered := 0
		for _, p := range members {
			sub, ok := r.Submissions[p.PeerID]
			if !ok {
				continue
			}
			answered++
			tally[sub.SelectedIndex]++
			if sub.AnsweredAtMS > latestAtMS {
				latestAtMS = sub.AnsweredAtMS
			}
		}

		res := types.ChaosTeamResult{Team: team, VoteCounts: tally, ParticipantsCount: len(members), AnsweredCount: answered}
		if answered > 0 {
			best, tied := pluralityWithTies(tally)
			chosen := best
			if len(tied) > 1 {
				chosen = rng.PickInt(ra.deps.RNG, tied)
				res.TieResolvedRandomly = true
			}
			remaining := clampRemaining(r.PhaseDeadlineMS - latestAtMS)
			isCorrect := chosen == q.CorrectIndex
			base, bonus, points := pointsFor(isCorrect, remaining, totalMs)
			r.TeamScores[team] += points
			selected := chosen
			res.SelectedIndex = &selected
			res.IsCorrect = isCorrect
			res.BasePoints = base
			res.SpeedBonus = bonus
			res.TimeRemainingMs = remaining
			res.PointsAwarded = points
		}

		for _, p := range members {
			sub, ok := r.Submissions[p.PeerID]
			if !ok {
				updateSkipStats(p)
				continue
			}
			isCorrectIndividual := sub.SelectedIndex == q.CorrectIndex
			remaining := clampRemaining(r.PhaseDeadlineMS - sub.AnsweredAtMS)
			updateAnswerStats(p, isCorrectIndividual, remaining, totalMs, 0, nowMS)
		}
		results[team] = res
	}
	reveal.ChaosTeamResults = results
	return reveal
}

// pluralityWithTies returns one arbitrary max-count key plus the full
// set of keys tied for that max (P5).
func pluralityWithTies(tally map[int]int) (int, []int) {
	maxCount := -1
	for _, c := range tally {
		if c > maxCount {
			maxCount = c
		}
	}
	tied := make([]int, 0, len(tally))
	for idx, c := range tally {
		if c == maxCount {
			tied = append(tied, idx)
		}
	}
	best := 0
	if len(tied) > 0 {
		best = tied[0]
	}
	return best, tied
}

func (ra *RoomActor) finalizeFFA(q types.Question, totalMs, nowMS int64, skippedByHost bool) types.RevealRecord {
	r := ra.room
	reveal := types.RevealRecord{Mode: types.ModeFFA, CorrectIndex: q.CorrectIndex, SkippedByHost: skippedByHost}
	players := r.NonHostNonSpectatorPlayers()
	results := make([]types.PlayerResult, 0, len(players))
	for _, p := range players {
		sub, ok := r.Submissions[p.PeerID]
		if !ok {
			updateSkipStats(p)
			results = append(results, types.PlayerResult{
				PeerID: p.PeerID, Name: p.Name, Status: "timeout",
				TotalScore: r.PlayerScores[p.PeerID],
			})
			continue
		}
		remaining := clampRemaining(r.PhaseDeadlineMS - sub.AnsweredAtMS)
		isCorrect := sub.SelectedIndex == q.CorrectIndex
		base, bonus, points := pointsFor(isCorrect, remaining, totalMs)
		r.PlayerScores[p.PeerID] += points
		updateAnswerStats(p, isCorrect, remaining, totalMs, points, nowMS)

		selected := sub.SelectedIndex
		results = append(results, types.PlayerResult{
			PeerID: p.PeerID, Name: p.Name, SelectedIndex: &selected,
			IsCorrect: isCorrect, BasePoints: base, SpeedBonus: bonus,
			TimeRemainingMs: remaining, PointsAwarded: points,
			TotalScore: r.PlayerScores[p.PeerID], Status: "answered",
		})
	}
	reveal.PlayerResults = results
	reveal.ParticipantsCount = len(results)
	return reveal
}

// onRevealTimer fires after the reveal delay elapses.
func (ra *RoomActor) onRevealTimer() {
	if ra.room.Phase != PhaseReveal {
		return
	}
	skippedByHost := ra.room.LastReveal != nil && ra.room.LastReveal.SkippedByHost
	ra.advanceAfterReveal(skippedByHost)
}

// advanceAfterReveal implements §4.2's "next step after reveal" table.
func (ra *RoomActor) advanceAfterReveal(skippedByHost bool) {
	r := ra.room
	switch r.Config.GameMode {
	case types.ModeClassic:
		if skippedByHost || r.ActiveTeam == types.TeamB {
			r.ActiveTeam = types.TeamA
			ra.advanceToNextQuestionOrResults()
			return
		}
		r.ActiveTeam = types.TeamB
		ra.beginQuestionPhase()
	case types.ModeChaos:
		r.ActiveTeam = types.TeamA
		ra.advanceToNextQuestionOrResults()
	case types.ModeFFA:
		ra.advanceToNextQuestionOrResults()
	}
}

func (ra *RoomActor) advanceToNextQuestionOrResults() {
	r := ra.room
	if r.CurrentQuestionIndex >= len(r.Questions)-1 {
		ra.enterResults()
		return
	}
	r.CurrentQuestionIndex++
	ra.beginQuestionPhase()
}

// beginQuestionPhase arms a fresh question deadline over whatever
// CurrentQuestionIndex/ActiveTeam the caller has already set.
func (ra *RoomActor) beginQuestionPhase() {
	r := ra.room
	r.Submissions = make(map[string]types.Submission)
	r.ActiveAnswer = nil
	r.SkipRequesters = make(map[string]struct{})
	r.SkipStatus = "idle"
	r.SkipMessageID = ""
	r.Phase = PhaseQuestion
	r.PhaseDeadlineMS = ra.now() + QuestionTime.Milliseconds()
	ra.scheduleTimer(TimerQuestion, QuestionTime, ra.onQuestionTimer)
	ra.broadcastAndPersist(false, false)
}
