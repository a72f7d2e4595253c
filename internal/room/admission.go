// Gateway & Admission (§4.1). The room-id lookup and identity-token
// resolution are I/O-bound steps the gateway performs before an actor
// exists for the room; everything from duplicate detection onward runs
// inside the actor's single goroutine via Admit.
package room

import (
	"context"

	"github.com/google/uuid"

	"github.com/Unkno394/QuizBattleee/internal/auth"
	"github.com/Unkno394/QuizBattleee/internal/identity"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

// ValidateJoinPayload implements the join-frame shape check; an
// unparseable frame maps to the same code at the gateway, while a
// timed-out join is rejected there with JOIN_TIMEOUT.
func ValidateJoinPayload(p types.JoinPayload) *types.AppError {
	if p.RoomID == "" || p.Name == "" {
		return types.NewError(types.ErrInvalidJoinPayload, "roomId and name are required")
	}
	return nil
}

// isWellFormedClientID requires at least 8 alphanumeric characters (§4.1).
func isWellFormedClientID(id string) bool {
	if len(id) < 8 {
		return false
	}
	for _, r := range id {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum {
			return false
		}
	}
	return true
}

// ResolveIdentityKey implements §4.1's identity-key derivation: bearer
// token resolves to "acct:<uid>" via the identity service; otherwise a
// well-formed clientId yields "guest:<clientId>"; otherwise none.
func ResolveIdentityKey(ctx context.Context, resolver identity.Resolver, payload types.JoinPayload) (string, *types.AppError) {
	if payload.Token != "" {
		if resolver == nil {
			return "", types.NewError(types.ErrAuthTokenInvalid, "identity resolution unavailable")
		}
		id, err := resolver.Resolve(ctx, payload.Token)
		if err != nil {
			return "", types.NewError(types.ErrAuthTokenInvalid, "invalid bearer token")
		}
		return id.Key, nil
	}
	if isWellFormedClientID(payload.ClientID) {
		return "guest:" + payload.ClientID, nil
	}
	return "", nil
}

// AdmitOutcome is Admit's result: either Connected is populated (and
// OldSocket non-nil on a handoff, for the gateway to close with 4002
// outside the actor), or Err carries a typed admission failure.
type AdmitOutcome struct {
	Connected types.ConnectedFrame
	Err       *types.AppError
	OldSocket Socket
}

// Admit runs the full §4.1 admission algorithm synchronously on the
// room's actor goroutine.
func (ra *RoomActor) Admit(payload types.JoinPayload, identityKey string, sock Socket) AdmitOutcome {
	var out AdmitOutcome
	ra.run(func() {
		out = ra.admitLocked(payload, identityKey, sock)
	})
	return out
}

func (ra *RoomActor) admitLocked(payload types.JoinPayload, identityKey string, sock Socket) AdmitOutcome {
	r := ra.room

	// 2. Duplicate detection: player-token first, then identity-key.
	var existing *PlayerConnection
	if payload.PlayerToken != "" {
		if peerID, ok := r.PlayerTokens[payload.PlayerToken]; ok {
			existing = r.Players[peerID]
		}
	}
	if existing == nil && identityKey != "" {
		for _, p := range r.Players {
			if p.IdentityKey == identityKey {
				existing = p
				break
			}
		}
	}
	wantsHost := payload.HostToken != ""
	if existing != nil {
		if existing.IsHost != wantsHost {
			return AdmitOutcome{Err: types.NewError(types.ErrAccountAlreadyInRoom, "account already connected in this room with a different role")}
		}
		return ra.handoff(existing, payload, identityKey, sock)
	}

	// 3. Capacity.
	maxPlayers := ra.deps.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = MaxPlayers
	}
	if len(r.Players) >= maxPlayers {
		return AdmitOutcome{Err: types.NewError(types.ErrRoomFull, "room is full")}
	}

	// 4. Host request.
	isHost := false
	if wantsHost {
		if !auth.SecretMatches(payload.HostToken, r.Config.HostTokenHash) {
			return AdmitOutcome{Err: types.NewError(types.ErrHostTokenInvalid, "host token mismatch")}
		}
		isHost = true
		if r.HostPeerID != "" {
			if prev, ok := r.Players[r.HostPeerID]; ok {
				prev.IsHost = false
			}
		}
	}

	// 5. Password gate (non-host).
	if !isHost && r.Config.PasswordHash != "" {
		if payload.RoomPassword == "" {
			return AdmitOutcome{Err: types.NewError(types.ErrRoomPasswordRequired, "room password required")}
		}
		if !auth.SecretMatches(payload.RoomPassword, r.Config.PasswordHash) {
			return AdmitOutcome{Err: types.NewError(types.ErrRoomPasswordInvalid, "room password invalid")}
		}
	}

	// 6. Team placement: in lobby (including a lobby held under a
	// host-reconnect pause) non-host joiners play; otherwise they spectate.
	isSpectator := false
	var team *types.Team
	inLobby := r.Phase == PhaseLobby ||
		(r.Phase == PhaseHostReconnect && r.Paused != nil && r.Paused.Phase == PhaseLobby)
	if !isHost && !inLobby {
		isSpectator = true
	}

	// 7. Assign peer-id, sanitize/uniquify name, store, index, emit.
	peerID := uuid.NewString()
	name := UniquifyName(SanitizeName(payload.Name), r.Players, peerID)
	playerToken := uuid.NewString()

	p := &PlayerConnection{
		PeerID:      peerID,
		Name:        name,
		Team:        team,
		IsHost:      isHost,
		IsSpectator: isSpectator,
		PlayerToken: playerToken,
		IdentityKey: identityKey,
		Socket:      sock,
	}
	r.Players[peerID] = p
	r.PlayerTokens[playerToken] = peerID
	if isHost {
		r.HostPeerID = peerID
	}

	connected := types.ConnectedFrame{
		Type:        "connected",
		PeerID:      peerID,
		RoomID:      r.Code,
		IsHost:      isHost,
		IsSpectator: isSpectator,
		Team:        team,
		PlayerToken: playerToken,
	}
	ra.broadcastAndPersist(false, false)
	return AdmitOutcome{Connected: connected}
}

// handoff rebinds an existing peer-id to a fresh socket (§4.1.2):
// old socket is returned so the gateway can close it with 4002 outside
// the actor, a supplied name is re-sanitized and re-uniquified, and a
// pending host-reconnect pause is resumed if the reclaimed player is the
// host. Cached cosmetic attributes are kept as they were; the handoff
// does not refresh them.
func (ra *RoomActor) handoff(existing *PlayerConnection, payload types.JoinPayload, identityKey string, sock Socket) AdmitOutcome {
	r := ra.room
	oldSocket := existing.Socket
	existing.Socket = sock
	existing.IdentityKey = identityKey
	ra.cancelTimer(presenceGraceKey(existing.PeerID))
	if payload.Name != "" {
		existing.Name = UniquifyName(SanitizeName(payload.Name), r.Players, existing.PeerID)
	}
	if ra.deps.Metrics != nil {
		ra.deps.Metrics.HandoffTotal.Inc()
	}
	if existing.IsHost && r.Phase == PhaseHostReconnect && r.Paused != nil {
		ra.resumeFromPause()
	}
	connected := types.ConnectedFrame{
		Type:        "connected",
		PeerID:      existing.PeerID,
		RoomID:      r.Code,
		IsHost:      existing.IsHost,
		IsSpectator: existing.IsSpectator,
		Team:        existing.Team,
		PlayerToken: existing.PlayerToken,
	}
	ra.broadcastAndPersist(false, false)
	return AdmitOutcome{Connected: connected, OldSocket: oldSocket}
}
