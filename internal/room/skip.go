package room

import (
	"github.com/google/uuid"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// refreshSkipStatus recomputes the pinned skip-request system message
// after the requester set changes (a request, a disconnect, a
// disqualification). It never downgrades an already-`rejected` status
// (P10): once rejected, the pinned rejection notice is left as it is and
// no new pin is written.
func (r *Room) refreshSkipStatus(ra *RoomActor) {
	if r.SkipStatus == "rejected" {
		return
	}
	if len(r.SkipRequesters) == 0 {
		r.SkipStatus = "idle"
		r.removeSkipMessage()
		return
	}
	r.SkipStatus = "pending"
	r.upsertSkipMessage(ra)
}

func (r *Room) removeSkipMessage() {
	if r.SkipMessageID == "" {
		return
	}
	for i, m := range r.Chat {
		if m.ID == r.SkipMessageID {
			r.Chat = append(r.Chat[:i], r.Chat[i+1:]...)
			break
		}
	}
	r.SkipMessageID = ""
}

func (r *Room) upsertSkipMessage(ra *RoomActor) {
	names := make([]string, 0, len(r.SkipRequesters))
	for peerID := range r.SkipRequesters {
		if p, ok := r.Players[peerID]; ok {
			names = append(names, p.Name)
		}
	}
	text := "Skip requested by: " + joinNames(names)

	for i, m := range r.Chat {
		if m.ID == r.SkipMessageID {
			r.Chat[i].Text = text
			return
		}
	}
	// no pinned message yet for this question, or it has been evicted
	// from the bounded chat log; the underlying request state is tracked
	// independently (§4.6), so a fresh pin is created rather than
	// resurrecting the old id.
	msg := types.ChatMessage{
		ID:          uuid.NewString(),
		Text:        text,
		Visibility:  "all",
		Kind:        "skip-request",
		CreatedAtMS: ra.now(),
	}
	r.appendChat(msg)
	r.SkipMessageID = msg.ID
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// HandleRequestSkip implements `request-skip-question` (§4.6).
func (ra *RoomActor) HandleRequestSkip(peerID string) {
	r := ra.room
	if r.Phase != PhaseQuestion {
		return
	}
	p, ok := r.Players[peerID]
	if !ok || p.IsHost || p.IsSpectator {
		return
	}
	if r.SkipStatus == "rejected" {
		return // P10: no-op once rejected for this question
	}
	if _, already := r.SkipRequesters[peerID]; already {
		return
	}
	r.SkipRequesters[peerID] = struct{}{}
	r.refreshSkipStatus(ra)
	ra.broadcastAndPersist(false, false)
}

// HandleResolveSkipRequest implements host `resolve-skip-request` (§4.6).
func (ra *RoomActor) HandleResolveSkipRequest(hostPeerID, decision string) {
	r := ra.room
	host, ok := r.Players[hostPeerID]
	if !ok || !host.IsHost {
		return
	}
	if r.Phase != PhaseQuestion || r.SkipStatus != "pending" {
		return
	}
	switch decision {
	case "approve":
		ra.finalizeQuestion(true)
	case "reject":
		r.SkipStatus = "rejected"
		r.removeSkipMessage()
		msg := types.ChatMessage{
			ID:          uuid.NewString(),
			Text:        "Skip request rejected by host.",
			Visibility:  "all",
			Kind:        "skip-request",
			CreatedAtMS: ra.now(),
		}
		r.appendChat(msg)
		r.SkipMessageID = msg.ID
		ra.broadcastAndPersist(false, false)
	}
}
