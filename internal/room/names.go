package room

import (
	"strings"

	"github.com/Unkno394/QuizBattleee/internal/rng"
)

// SanitizeName trims, collapses whitespace, truncates to
// MaxDisplayNameLen and substitutes DefaultDisplayName if a forbidden
// part is present (§6).
func SanitizeName(raw string) string {
	fields := strings.Fields(raw)
	name := strings.Join(fields, " ")
	if runes := []rune(name); len(runes) > MaxDisplayNameLen {
		name = string(runes[:MaxDisplayNameLen])
	}
	if name == "" {
		name = DefaultDisplayName
	}
	lower := strings.ToLower(name)
	for _, bad := range ForbiddenNameParts {
		if strings.Contains(lower, bad) {
			return DefaultDisplayName
		}
	}
	return name
}

// UniquifyName appends a numeric suffix until name doesn't collide with
// any existing non-self player name.
func UniquifyName(name string, existing map[string]*PlayerConnection, excludePeerID string) string {
	taken := make(map[string]struct{}, len(existing))
	for peerID, p := range existing {
		if peerID == excludePeerID {
			continue
		}
		taken[p.Name] = struct{}{}
	}
	if _, clash := taken[name]; !clash {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + " " + itoa(i)
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// GenerateRoomCode draws length chars (8 when length <= 0) from
// RoomCodeAlphabet.
func GenerateRoomCode(src rng.Source, length int) string {
	if length <= 0 {
		length = 8
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = RoomCodeAlphabet[src.Intn(len(RoomCodeAlphabet))]
	}
	return string(b)
}

// SanitizeTeamName truncates to MaxTeamNameLen after trimming/collapsing
// whitespace (§4.5).
func SanitizeTeamName(raw string) string {
	fields := strings.Fields(raw)
	name := strings.Join(fields, " ")
	if runes := []rune(name); len(runes) > MaxTeamNameLen {
		name = string(runes[:MaxTeamNameLen])
	}
	return name
}

// MaxChatTextLen bounds a single chat message; the original has no
// explicit cap in spec.md but an unbounded message would defeat the
// bounded chat log's purpose.
const MaxChatTextLen = 300

// SanitizeChatText trims/collapses whitespace and truncates to MaxChatTextLen.
func SanitizeChatText(raw string) string {
	fields := strings.Fields(raw)
	text := strings.Join(fields, " ")
	if len(text) > MaxChatTextLen {
		text = text[:MaxChatTextLen]
	}
	return text
}

// RandomUnusedTeamName picks a pool entry not already in used.
func RandomUnusedTeamName(src rng.Source, used map[string]struct{}) string {
	candidates := make([]string, 0, len(DefaultTeamNamePool))
	for _, name := range DefaultTeamNamePool {
		if _, taken := used[name]; !taken {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		candidates = DefaultTeamNamePool
	}
	return rng.PickString(src, candidates)
}
