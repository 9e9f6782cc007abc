package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text unchanged",
			input:    "The meeting is at three o'clock tomorrow.",
			expected: "The meeting is at three o'clock tomorrow.",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  \n Cleaned up text. \n\n",
			expected: "Cleaned up text.",
		},
		{
			name:     "wrapping code fence removed",
			input:    "```\nSome enhanced text.\n```",
			expected: "Some enhanced text.",
		},
		{
			name:     "code fence with language identifier removed",
			input:    "```text\nSome enhanced text.\n```",
			expected: "Some enhanced text.",
		},
		{
			name:     "here is preamble dropped",
			input:    "Here is the cleaned transcript:\nSome enhanced text.",
			expected: "Some enhanced text.",
		},
		{
			name:     "here's preamble dropped",
			input:    "Here's your text:\nSome enhanced text.",
			expected: "Some enhanced text.",
		},
		{
			name:     "preamble kept when nothing follows",
			input:    "Here is the cleaned transcript:",
			expected: "Here is the cleaned transcript:",
		},
		{
			name:     "mid-text fences untouched",
			input:    "Use ```code``` for emphasis.",
			expected: "Use ```code``` for emphasis.",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "multi-line body preserved",
			input:    "First sentence.\n\nSecond sentence.",
			expected: "First sentence.\n\nSecond sentence.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}
