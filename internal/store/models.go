// Package store owns the two external persistence tiers the core
// consumes through narrow interfaces (§4.10): a short-TTL best-effort
// HotCache and an authoritative DurableStore, plus an in-memory
// implementation of both for local development and tests, the same
// MemoryMode split the teacher's internal/store uses.
package store

import (
	"context"
	"time"
)

// Snapshot is the persisted room payload (§6: "Persisted snapshot format").
type Snapshot struct {
	RoomID        string    `json:"roomId"`
	Topic         string    `json:"topic"`
	QuestionCount int       `json:"questionCount"`
	StateJSON     string    `json:"stateJson"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// GameResult is one appended completed-game record (the "append
// completed game result" external capability from spec.md §1).
type GameResult struct {
	RoomID      string    `json:"roomId"`
	Topic       string    `json:"topic"`
	GameMode    string    `json:"gameMode"`
	WinningTeam string    `json:"winningTeam,omitempty"`
	TeamScores  string    `json:"teamScoresJson"`
	PlayerStats string    `json:"playerStatsJson"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// HotCache is the short-TTL best-effort tier (§4.10).
type HotCache interface {
	Get(ctx context.Context, roomID string) (string, bool, error)
	Set(ctx context.Context, roomID, stateJSON string, ttl time.Duration) error
}

// DurableStore is the authoritative tier (§4.10).
type DurableStore interface {
	Load(ctx context.Context, roomID string) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	AppendResult(ctx context.Context, result GameResult) error
}
