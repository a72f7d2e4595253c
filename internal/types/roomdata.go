package types

// This file holds the plain, socket-free data shapes of the room aggregate
// (§3): question content, per-submission records, team bookkeeping, and
// reveal/history/chat entries. Keeping them here (rather than in
// internal/room, which also holds the live Room/PlayerConnection/Socket
// types) lets internal/projection build viewer-scoped views from plain
// data without importing internal/room, avoiding a room<->projection
// import cycle.

// Question is one quiz question, produced before lobby start either by
// catalog sampling or validated external generation.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Difficulty   string   `json:"difficulty"`
}

// PlayerStats are the per-peer cumulative stats tracked for results.
type PlayerStats struct {
	Answers           int    `json:"answers"`
	Correct           int    `json:"correct"`
	Wrong             int    `json:"wrong"`
	Skipped           int    `json:"skipped"`
	TotalResponseMs   int64  `json:"totalResponseMs"`
	FastestResponseMs int64  `json:"fastestResponseMs"`
	Points            int    `json:"points"`
	LastAnsweredAtMS  int64  `json:"lastAnsweredAt"`
	AuthUserID        string `json:"authUserId,omitempty"`
}

func (s *PlayerStats) AvgResponseMS() int64 {
	if s.Answers == 0 {
		return 0
	}
	return s.TotalResponseMs / int64(s.Answers)
}

// Submission is one eligible submitter's answer during `question`.
type Submission struct {
	SelectedIndex int   `json:"selectedIndex"`
	AnsweredAtMS  int64 `json:"answeredAt"`
}

// ClassicAnswer is the single active answer record for classic mode.
type ClassicAnswer struct {
	SelectedIndex int    `json:"selectedIndex"`
	ByPeerID      string `json:"byPeerId"`
	ByName        string `json:"byName"`
	AnsweredAtMS  int64  `json:"answeredAt"`
}

// TeamState is the per-team captain-vote/team-naming bookkeeping.
type TeamState struct {
	Name             string            `json:"name"`
	Captain          string            `json:"captain,omitempty"`
	VoteTally        map[string]int    `json:"voteTally"`
	Ballots          map[string]string `json:"ballots"`
	CaptainVoteReady bool              `json:"captainVoteReady"`
	TeamNamingReady  bool              `json:"teamNamingReady"`
}

func NewTeamState() *TeamState {
	return &TeamState{VoteTally: map[string]int{}, Ballots: map[string]string{}}
}

// PlayerResult is one participant's outcome in a reveal record.
type PlayerResult struct {
	PeerID          string `json:"peerId"`
	Name            string `json:"name"`
	Team            *Team  `json:"team,omitempty"`
	SelectedIndex   *int   `json:"selectedIndex"`
	IsCorrect       bool   `json:"isCorrect"`
	BasePoints      int    `json:"basePoints"`
	SpeedBonus      int    `json:"speedBonus"`
	TimeRemainingMs int64  `json:"timeRemainingMs"`
	PointsAwarded   int    `json:"pointsAwarded"`
	TotalScore      int    `json:"totalScore"`
	Status          string `json:"status"` // answered | timeout | invalid
}

// ChaosTeamResult is one team's plurality-vote outcome.
type ChaosTeamResult struct {
	Team                Team        `json:"team"`
	SelectedIndex       *int        `json:"selectedIndex"`
	IsCorrect           bool        `json:"isCorrect"`
	BasePoints          int         `json:"basePoints"`
	SpeedBonus          int         `json:"speedBonus"`
	TimeRemainingMs     int64       `json:"timeRemainingMs"`
	PointsAwarded       int         `json:"pointsAwarded"`
	VoteCounts          map[int]int `json:"voteCounts"`
	TieResolvedRandomly bool        `json:"tieResolvedRandomly"`
	ParticipantsCount   int         `json:"participantsCount"`
	AnsweredCount       int         `json:"answeredCount"`
}

// RevealRecord is the outcome of finalizing one question, shaped to
// cover all three modes (§4.3).
type RevealRecord struct {
	Mode              GameMode                 `json:"mode"`
	CorrectIndex      int                      `json:"correctIndex"`
	SelectedIndex     *int                     `json:"selectedIndex"`
	AnsweredByPeerID  string                   `json:"answeredBy,omitempty"`
	AnsweredByName    string                   `json:"answeredByName,omitempty"`
	Team              *Team                    `json:"team,omitempty"`
	IsCorrect         bool                     `json:"isCorrect"`
	BasePoints        int                      `json:"basePoints"`
	SpeedBonus        int                      `json:"speedBonus"`
	TimeRemainingMs   int64                    `json:"timeRemainingMs"`
	PointsAwarded     int                      `json:"pointsAwarded"`
	SkippedByHost     bool                     `json:"skippedByHost"`
	ParticipantsCount int                      `json:"participantsCount,omitempty"`
	PlayerResults     []PlayerResult           `json:"playerResults,omitempty"`
	ChaosTeamResults  map[Team]ChaosTeamResult `json:"chaosTeamResults,omitempty"`
}

// QuestionHistoryEntry is one bounded question-history record.
type QuestionHistoryEntry struct {
	ID             string       `json:"id"`
	TimestampMS    int64        `json:"timestamp"`
	QuestionNumber int          `json:"questionNumber"`
	Difficulty     string       `json:"difficulty"`
	Reveal         RevealRecord `json:"reveal"`
}

// ChatMessage is one entry in the bounded chat log (§4.6).
type ChatMessage struct {
	ID           string `json:"id"`
	SenderPeerID string `json:"senderPeerId,omitempty"`
	SenderName   string `json:"senderName,omitempty"`
	Text         string `json:"text"`
	Visibility   string `json:"visibility"` // "all" | "host" | team key
	Kind         string `json:"kind"`       // "chat" | "presence" | "skip-request" | "system"
	CreatedAtMS  int64  `json:"createdAt"`
}

// EventRecord is a bounded append-only audit trail entry.
type EventRecord struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	AtMS int64  `json:"at"`
}

// PausedState records what to restore on resume (§4.7).
type PausedState struct {
	Phase                Phase  `json:"phase"`
	RemainingMs          int64  `json:"remainingMs"`
	DisconnectedHostName string `json:"disconnectedHostName,omitempty"`
	ManualPauseByName    string `json:"manualPauseByName,omitempty"`
	DeadlineMS           int64  `json:"deadlineMs,omitempty"`
}

// RoomConfig is the room's immutable-ish creation-time configuration.
type RoomConfig struct {
	Topic         string         `json:"topic"`
	Difficulty    DifficultyMode `json:"difficulty"`
	GameMode      GameMode       `json:"gameMode"`
	QuestionCount int            `json:"questionCount"`
	PasswordHash  string         `json:"-"`
	HostTokenHash string         `json:"-"`
}

// PlayerView is the read-only, socket-free projection of a PlayerConnection
// used by internal/projection and by snapshot persistence.
type PlayerView struct {
	PeerID      string            `json:"peerId"`
	Name        string            `json:"name"`
	Team        *Team             `json:"team,omitempty"`
	IsHost      bool              `json:"isHost"`
	IsSpectator bool              `json:"isSpectator"`
	IsCaptain   bool              `json:"isCaptain"`
	Cosmetic    map[string]string `json:"cosmetic,omitempty"`
	Stats       PlayerStats       `json:"stats"`
}
