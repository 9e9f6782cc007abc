package awscreds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseINI(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected iniSections
	}{
		{
			name: "basic sections",
			content: `[default]
aws_access_key_id = AKIA123
aws_secret_access_key = secret123

[dev]
aws_access_key_id=AKIA456
`,
			expected: iniSections{
				"default": {"aws_access_key_id": "AKIA123", "aws_secret_access_key": "secret123"},
				"dev":     {"aws_access_key_id": "AKIA456"},
			},
		},
		{
			name: "comments and blank lines skipped",
			content: `# leading comment
; another comment

[default]
# inline section comment
aws_access_key_id = AKIA123

; trailing comment
`,
			expected: iniSections{
				"default": {"aws_access_key_id": "AKIA123"},
			},
		},
		{
			name: "value split on first equals only",
			content: `[default]
aws_secret_access_key = abc=def==ghi
`,
			expected: iniSections{
				"default": {"aws_secret_access_key": "abc=def==ghi"},
			},
		},
		{
			name: "lines outside any section ignored",
			content: `aws_access_key_id = orphan
not even a pair
[default]
region = us-east-1
`,
			expected: iniSections{
				"default": {"region": "us-east-1"},
			},
		},
		{
			name: "unparsable lines inside a section ignored",
			content: `[default]
this line has no equals
aws_access_key_id = AKIA123
= valueless key
`,
			expected: iniSections{
				"default": {"aws_access_key_id": "AKIA123"},
			},
		},
		{
			name: "reopened section merges",
			content: `[default]
aws_access_key_id = AKIA123
[dev]
region = eu-west-1
[default]
aws_secret_access_key = secret123
`,
			expected: iniSections{
				"default": {"aws_access_key_id": "AKIA123", "aws_secret_access_key": "secret123"},
				"dev":     {"region": "eu-west-1"},
			},
		},
		{
			name:     "empty content",
			content:  "",
			expected: iniSections{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseINI(tt.content)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseINI_RoundTripStable(t *testing.T) {
	content := `[profile staging]
region = ap-southeast-2
output = json

[default]
aws_access_key_id = AKIA123
aws_secret_access_key = secret/with/slashes
aws_session_token = FwoG==
`
	first := parseINI(content)

	// Re-serialize in arbitrary order and parse again with noise added
	noisy := "\n# regenerated\n"
	for name, section := range first {
		noisy += "[" + name + "]\n\n"
		for k, v := range section {
			noisy += "; comment\n" + k + " = " + v + "\n"
		}
	}

	second := parseINI(noisy)
	require.Equal(t, first, second)
}

func TestProfileFromSection(t *testing.T) {
	tests := []struct {
		section  string
		expected string
	}{
		{"default", "default"},
		{"dev", "dev"},
		{"profile dev", "dev"},
		{"profile my profile", "my profile"},
		{"profile  spaced", "spaced"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, profileFromSection(tt.section))
	}
}

func TestConfigSectionFor(t *testing.T) {
	assert.Equal(t, "default", configSectionFor("default"))
	assert.Equal(t, "profile dev", configSectionFor("dev"))
}
