package room

import (
	"time"

	"github.com/Unkno394/QuizBattleee/internal/types"
)

// Phase aliases let handlers write the bare phase name (PhaseQuestion)
// instead of types.PhaseQuestion throughout this package.
const (
	PhaseLobby         = types.PhaseLobby
	PhaseTeamReveal    = types.PhaseTeamReveal
	PhaseCaptainVote   = types.PhaseCaptainVote
	PhaseTeamNaming    = types.PhaseTeamNaming
	PhaseQuestion      = types.PhaseQuestion
	PhaseReveal        = types.PhaseReveal
	PhaseResults       = types.PhaseResults
	PhaseHostReconnect = types.PhaseHostReconnect
	PhaseManualPause   = types.PhaseManualPause
)

// Phase-timer durations, recovered from original_source/backend/app/runtime_constants.py
// verbatim (they aren't stated numerically in spec.md's prose beyond "30 s"/"4 s" etc,
// but the original fixes exact millisecond values this module preserves).
const (
	QuestionTime                 = 30 * time.Second
	RevealTime                   = 4 * time.Second
	SkipRevealTime               = 1800 * time.Millisecond
	TeamRevealTime               = 6 * time.Second
	CaptainVoteTime              = 30 * time.Second
	AutoCaptainSingleMemberDelay = 3 * time.Second
	TeamNamingTime               = 30 * time.Second
	HostReconnectWait            = 30 * time.Second

	// JoinTimeout is the join-handshake inactivity limit (§4.1, §5).
	JoinTimeout = 8 * time.Second

	// MinTimerDelay is the minimum delay scheduleTimer ever arms, per §4.2's
	// timer discipline ("min delay 120 ms").
	MinTimerDelay = 120 * time.Millisecond

	// PresenceDisconnectGrace debounces the "player left" system chat
	// message so a handoff reconnect within the window produces none,
	// recovered from original_source's PLAYER_PRESENCE_DISCONNECT_GRACE_MS.
	PresenceDisconnectGrace = 3500 * time.Millisecond
)

const (
	BaseCorrectPoints       = 1
	ChatStrikesToDisqualify = 3
	MaxPlayers              = 20
	MinQuestionCount        = 5
	MaxQuestionCount        = 7
	MaxDisplayNameLen       = 24
	MaxTeamNameLen          = 32
)

// RoomCodeAlphabet avoids easily confused glyphs (§6).
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ForbiddenNameParts trigger the default display name substitution (§6).
var ForbiddenNameParts = []string{"админ", "admin", "moder", "host"}

// DefaultDisplayName is substituted when a sanitized name contains a
// forbidden part.
const DefaultDisplayName = "Игрок"

// DefaultTeamNamePool backs `random-team-name` (§4.5), recovered from
// original_source's DYNAMIC_TEAM_NAMES.
var DefaultTeamNamePool = []string{
	"Импульс", "Перехват", "Фактор X", "Блиц-режим", "Прорыв",
	"Сверхновые", "Форсаж", "Рубеж", "Эпицентр", "Нулевая ошибка",
	"Контрольная точка", "Финальный ход", "Скрытый потенциал", "Мозговой штурм",
	"Решающий аргумент", "Горизонт", "Точка прорыва", "Стратегический резерв",
	"Ускорение", "Предел концентрации", "Критическая масса", "Вектор",
	"Смена парадигмы", "Код доступа", "Глубокий анализ", "Системный подход",
	"Синхронизация", "Быстрая логика", "Тактический ход", "Зона влияния",
	"Интеллектуальный шторм", "Второе дыхание", "Пиковая форма", "Точный расчёт",
	"Момент истины",
}

// timer keys, per §4.2's "Timer discipline".
const (
	TimerQuestion      = "question"
	TimerReveal        = "reveal"
	TimerTeamReveal    = "teamReveal"
	TimerCaptainVote   = "captainVote"
	TimerCaptainAuto   = "captainAuto"
	TimerTeamNaming    = "teamNaming"
	TimerHostReconnect = "hostReconnect"
)
