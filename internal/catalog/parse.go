// Package catalog turns the stored task catalog into keyboard options and
// parses the answers those keyboards produce.
package catalog

import "strings"

const (
	// ShinyMark decorates rewards that may come out shiny. It is cosmetic
	// and is stripped before any catalog or storage lookup.
	ShinyMark = "✨"
	// CancelRow is the keyboard row that aborts the conversation.
	CancelRow = "❌❌❌"
	// CPMark prefixes the combat power line of a catalog entry.
	CPMark = "💯"
)

// StripShiny removes the shiny marker from a reward token.
func StripShiny(reward string) string {
	return strings.TrimSpace(strings.ReplaceAll(reward, ShinyMark, ""))
}

// RewardTokens extracts the candidate reward tokens from a task answer. The
// reward segment is everything before the first comma; tasks with several
// possible rewards separate them with '/'.
func RewardTokens(answer string) []string {
	segment := strings.SplitN(answer, ",", 2)[0]
	parts := strings.Split(segment, "/")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// IsCancel reports whether a message aborts the conversation, either via the
// keyboard's cancel row or a typed "Cancel".
func IsCancel(text string) bool {
	return strings.Contains(text, "❌") || strings.Contains(text, "Cancel")
}
