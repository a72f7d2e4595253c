package room

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Unkno394/QuizBattleee/internal/events"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// CanSee implements §4.6's visibility decision tree, recovered in full
// from original_source/backend/app/runtime_chat_visibility.py's
// can_player_see_message and ported to this module's field names. Host
// and spectators see everything (P6), matching the original's top-level
// role check before any mode/phase branch runs.
func CanSee(msg types.ChatMessage, r *Room, viewer *PlayerConnection) bool {
	if viewer.IsHost || viewer.IsSpectator {
		return true
	}
	if r.Phase == PhaseManualPause {
		return true
	}
	// Open Question resolved per SPEC_FULL.md: only visibility=="all"
	// presence messages get this blanket pass; other presence visibilities
	// fall through to the general rules below, matching the original
	// rather than special-casing every presence message. skip-request
	// pins with visibility=="all" get the same blanket pass (§4.6), per
	// the original's second unconditional rule.
	if msg.Visibility == "all" && (msg.Kind == "presence" || msg.Kind == "skip-request") {
		return true
	}
	if msg.Visibility == "host" {
		return false
	}
	if r.Phase == PhaseQuestion {
		switch r.Config.GameMode {
		case types.ModeClassic:
			return viewer.Team != nil && *viewer.Team == r.ActiveTeam &&
				(msg.Visibility == "all" || msg.Visibility == string(r.ActiveTeam))
		case types.ModeChaos:
			return msg.Visibility == "all" || (viewer.Team != nil && msg.Visibility == string(*viewer.Team))
		case types.ModeFFA:
			if _, submitted := r.Submissions[viewer.PeerID]; !submitted {
				return false
			}
			return msg.Visibility == "all"
		}
	}
	return msg.Visibility == "all" || (viewer.Team != nil && msg.Visibility == string(*viewer.Team))
}

// VisibleChat filters the bounded chat log down to what one viewer may see.
func VisibleChat(r *Room, viewer *PlayerConnection) []types.ChatMessage {
	out := make([]types.ChatMessage, 0, len(r.Chat))
	for _, msg := range r.Chat {
		if CanSee(msg, r, viewer) {
			out = append(out, msg)
		}
	}
	return out
}

// isAnswererForMode reports whether peerID is allowed to send chat during
// `question` for the room's current game mode (§4.6's send rules).
func (r *Room) isAnswererForMode(p *PlayerConnection) bool {
	if p.IsHost || p.IsSpectator {
		return true
	}
	switch r.Config.GameMode {
	case types.ModeClassic:
		team, ok := r.Teams[r.ActiveTeam]
		return ok && team.Captain == p.PeerID
	case types.ModeChaos:
		return p.Team != nil && (*p.Team == types.TeamA || *p.Team == types.TeamB)
	case types.ModeFFA:
		return true
	}
	return false
}

// HandleSendChat implements the §4.6 send rules for `send-chat`.
func (ra *RoomActor) HandleSendChat(peerID, text string) {
	r := ra.room
	p, ok := r.Players[peerID]
	if !ok || p.IsSpectator {
		return
	}
	text = SanitizeChatText(text)
	if text == "" {
		return
	}
	if r.Phase == PhaseQuestion && !r.isAnswererForMode(p) {
		return
	}
	visibility := "all"
	if !p.IsHost && r.Phase == PhaseQuestion {
		switch r.Config.GameMode {
		case types.ModeClassic, types.ModeChaos:
			if p.Team != nil {
				visibility = string(*p.Team)
			}
		}
	}
	r.appendChat(types.ChatMessage{
		ID:           uuid.NewString(),
		SenderPeerID: p.PeerID,
		SenderName:   p.Name,
		Text:         text,
		Visibility:   visibility,
		Kind:         "chat",
		CreatedAtMS:  ra.now(),
	})
	ra.broadcastAndPersist(false, false)
}

// HandleModerateChatMessage implements §4.6's moderation + disqualification.
func (ra *RoomActor) HandleModerateChatMessage(hostPeerID, messageID string) {
	r := ra.room
	host, ok := r.Players[hostPeerID]
	if !ok || !host.IsHost {
		return
	}
	idx := -1
	for i, m := range r.Chat {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	victim := r.Chat[idx]
	if victim.Kind == "system" || victim.Kind == "skip-request" {
		return
	}
	r.Chat = append(r.Chat[:idx], r.Chat[idx+1:]...)
	if victim.SenderPeerID == "" {
		ra.broadcastAndPersist(false, false)
		return
	}
	r.ChatStrikes[victim.SenderPeerID]++
	strikes := r.ChatStrikes[victim.SenderPeerID]
	target, ok := r.Players[victim.SenderPeerID]
	if !ok {
		ra.broadcastAndPersist(false, false)
		return
	}
	disqualified := strikes >= ChatStrikesToDisqualify
	if disqualified {
		ra.disqualifyPlayer(target)
	}
	if target.Socket != nil {
		msg := "Your message was removed by the host."
		level := "warning"
		if disqualified {
			msg = "You have been disqualified for repeated moderation strikes."
			level = "error"
		}
		_ = target.Socket.Send(types.ModerationNoticeFrame{
			Type:         "moderation-notice",
			Message:      msg,
			Level:        level,
			Strikes:      strikes,
			Disqualified: disqualified,
		})
	}
	if disqualified {
		r.appendChat(types.ChatMessage{
			ID:          uuid.NewString(),
			Text:        target.Name + " has been disqualified for repeated moderation strikes.",
			Visibility:  "all",
			Kind:        "system",
			CreatedAtMS: ra.now(),
		})
	}
	ra.broadcastAndPersist(false, false)
}

// disqualifyPlayer implements §4.6's 3rd-strike consequence: becomes a
// spectator, captain role transferred if needed, current submission
// dropped, skip-request withdrawn.
func (ra *RoomActor) disqualifyPlayer(p *PlayerConnection) {
	r := ra.room
	p.IsSpectator = true
	delete(r.Submissions, p.PeerID)
	delete(r.SkipRequesters, p.PeerID)
	r.refreshSkipStatus(ra)
	if p.IsCaptain {
		p.IsCaptain = false
		if p.Team != nil {
			ra.reassignCaptainAfterLoss(*p.Team, p.PeerID)
		}
	}
	if r.ActiveAnswer != nil && r.ActiveAnswer.ByPeerID == p.PeerID {
		r.ActiveAnswer = nil
	}
	go ra.deps.Publisher.Publish(context.Background(), events.Notification{
		Type:   events.NotifyPlayerDisqualified,
		RoomID: r.Code,
	})
}
