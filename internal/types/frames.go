// Package types holds the wire types shared by the gateway, room and
// projection packages: the JSON shapes of §6's client/server frames, the
// room configuration enums, and the error taxonomy.
package types

import "encoding/json"

// GameMode is one of the three scoring pipelines a room runs.
type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModeFFA     GameMode = "ffa"
	ModeChaos   GameMode = "chaos"
)

// DifficultyMode is the room's question-difficulty selector.
type DifficultyMode string

const (
	DifficultyEasy        DifficultyMode = "easy"
	DifficultyMedium      DifficultyMode = "medium"
	DifficultyHard        DifficultyMode = "hard"
	DifficultyMixed       DifficultyMode = "mixed"
	DifficultyProgressive DifficultyMode = "progressive"
)

// Team is a non-ffa team key.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Phase is one of the room's phase-state-machine states.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseTeamReveal    Phase = "team-reveal"
	PhaseCaptainVote   Phase = "captain-vote"
	PhaseTeamNaming    Phase = "team-naming"
	PhaseQuestion      Phase = "question"
	PhaseReveal        Phase = "reveal"
	PhaseResults       Phase = "results"
	PhaseHostReconnect Phase = "host-reconnect"
	PhaseManualPause   Phase = "manual-pause"
)

// ClientFrame is the envelope every inbound WebSocket message after the
// initial join frame is decoded into.
type ClientFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"-"`
}

// rawClientFrame lets ClientFrame capture unknown fields as Data without a
// second Unmarshal pass; UnmarshalJSON below re-serializes the envelope
// into Data so handlers can decode their own payload shape by field name.
type rawClientFrame struct {
	Type string `json:"type"`
}

func (f *ClientFrame) UnmarshalJSON(b []byte) error {
	var r rawClientFrame
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	f.Type = r.Type
	f.Data = append([]byte(nil), b...)
	return nil
}

// JoinPayload is the `join` frame (also read from the legacy query-string
// form) per §4.1.
type JoinPayload struct {
	RoomID       string `json:"roomId"`
	Name         string `json:"name"`
	HostToken    string `json:"hostToken,omitempty"`
	PlayerToken  string `json:"playerToken,omitempty"`
	RoomPassword string `json:"roomPassword,omitempty"`
	Token        string `json:"token,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
}

// ConnectedFrame is sent once admission succeeds.
type ConnectedFrame struct {
	Type        string `json:"type"`
	PeerID      string `json:"peerId"`
	RoomID      string `json:"roomId"`
	IsHost      bool   `json:"isHost"`
	IsSpectator bool   `json:"isSpectator"`
	Team        *Team  `json:"assignedTeam,omitempty"`
	PlayerToken string `json:"playerToken"`
}

// ErrorFrame closes the socket with a typed admission error.
type ErrorFrame struct {
	Type    string    `json:"type"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PongFrame answers a client `ping`.
type PongFrame struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
}

// ModerationNoticeFrame notifies a single connection of a moderation
// action taken against it.
type ModerationNoticeFrame struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	Level        string `json:"level"` // "warning" | "error"
	Strikes      int    `json:"strikes"`
	Disqualified bool   `json:"disqualified"`
}

// StateSyncFrame wraps a viewer-scoped projection (built by
// internal/projection) with the envelope type.
type StateSyncFrame struct {
	Type string `json:"type"`
	View json.RawMessage `json:"-"`
}

// MarshalJSON flattens View's fields alongside the envelope's `type`.
func (f StateSyncFrame) MarshalJSON() ([]byte, error) {
	view := f.View
	if view == nil {
		view = []byte("{}")
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(view, &merged); err != nil {
		return nil, err
	}
	typeJSON, err := json.Marshal(f.Type)
	if err != nil {
		return nil, err
	}
	merged["type"] = typeJSON
	return json.Marshal(merged)
}

// SubmitAnswerPayload is the `submit-answer` frame body.
type SubmitAnswerPayload struct {
	SelectedIndex int `json:"selectedIndex"`
}

// VoteCaptainPayload is the `vote-captain` frame body.
type VoteCaptainPayload struct {
	CandidatePeerID string `json:"candidatePeerId"`
}

// SetTeamNamePayload is the `set-team-name` frame body.
type SetTeamNamePayload struct {
	Name string `json:"name"`
}

// ResolveSkipRequestPayload is the `resolve-skip-request` frame body.
type ResolveSkipRequestPayload struct {
	Decision string `json:"decision"` // "approve" | "reject"
}

// ModerateChatMessagePayload is the `moderate-chat-message` frame body.
type ModerateChatMessagePayload struct {
	MessageID string `json:"messageId"`
}

// SendChatPayload is the `send-chat` frame body.
type SendChatPayload struct {
	Text string `json:"text"`
}
