// Package sanitize strips prompt-injection patterns and caps untrusted
// text before it reaches a draft artifact, a queue entry, or an LLM
// prompt.
package sanitize

import (
	"regexp"
	"strings"
)

// injectionPatterns mirrors companion/llm/sanitize.py's fixed set of
// case-insensitive indicators that a line is trying to steer the model
// rather than describe inbox/calendar/forum content.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore (all|any|previous) instructions`),
	regexp.MustCompile(`(?i)system prompt`),
	regexp.MustCompile(`(?i)developer message`),
	regexp.MustCompile(`(?i)exfiltrate`),
}

const truncationMarker = "\n…[truncated]"

// Text trims, truncates to maxChars, and drops any line matching an
// injection pattern. It never panics and returns "" for empty input.
func Text(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); maxChars > 0 && len(r) > maxChars {
		s = string(r[:maxChars]) + truncationMarker
	}

	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if matchesInjection(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func matchesInjection(line string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
