// Package common holds provider-agnostic helpers shared by the
// dispatcher implementations.
package common

import (
	"strings"
)

// preamblePrefixes are chatty lead-ins some models put before the actual
// output despite instructions not to.
var preamblePrefixes = []string{
	"here is",
	"here's",
}

// Sanitize normalizes model output before it is returned to the caller:
// a single wrapping markdown code fence is removed (with its language
// identifier), a leading "Here is ...:" preamble line is dropped when
// text follows it, and surrounding whitespace is trimmed.
func Sanitize(content string) string {
	content = strings.TrimSpace(content)
	content = stripCodeFence(content)
	content = stripPreamble(content)
	return strings.TrimSpace(content)
}

// stripCodeFence removes one wrapping ``` pair if the whole text sits
// inside it
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") || !strings.HasSuffix(content, "```") {
		return content
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	// Remove a language identifier on the opening fence line
	lines := strings.Split(inner, "\n")
	if len(lines) > 0 {
		firstLine := strings.TrimSpace(lines[0])
		if firstLine != "" && !strings.Contains(firstLine, " ") && len(firstLine) < 20 {
			inner = strings.Join(lines[1:], "\n")
		}
	}

	return strings.TrimSpace(inner)
}

// stripPreamble drops a leading "Here is ...:" line when the remainder
// is non-empty
func stripPreamble(content string) string {
	idx := strings.Index(content, "\n")
	if idx < 0 {
		return content
	}

	firstLine := strings.TrimSpace(content[:idx])
	lower := strings.ToLower(firstLine)
	for _, prefix := range preamblePrefixes {
		if strings.HasPrefix(lower, prefix) && strings.HasSuffix(firstLine, ":") {
			if rest := strings.TrimSpace(content[idx+1:]); rest != "" {
				return rest
			}
		}
	}
	return content
}
