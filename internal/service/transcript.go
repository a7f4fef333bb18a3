package service

import (
	"strings"
	"unicode"
)

var commandWords = []struct {
	action string
	words  []string
}{
	{ActionReady, []string{"ready", "go"}},
	{ActionResume, []string{"resume", "continue"}},
	{ActionPause, []string{"pause", "stop"}},
}

// parseCommand maps a spoken phrase to a session action. The first matching
// group wins, so "ready, go" confirms and "stop" pauses.
func parseCommand(text string) string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		seen[t] = true
	}
	for _, c := range commandWords {
		for _, w := range c.words {
			if seen[w] {
				return c.action
			}
		}
	}
	return ActionNone
}
