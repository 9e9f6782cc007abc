package awscreds

import (
	"strings"
)

// iniSections maps section name to its key/value pairs.
type iniSections map[string]map[string]string

// parseINI parses INI-style content the way the AWS CLI reads its
// credentials and config files: blank lines and lines starting with '#'
// or ';' are skipped, a "[...]" line opens a section, and "key=value"
// lines (split on the first '=') populate the current section. Lines
// that fit none of these, or key/value lines before any section header,
// are ignored.
func parseINI(content string) iniSections {
	sections := make(iniSections)
	var current map[string]string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			if existing, ok := sections[name]; ok {
				current = existing
			} else {
				current = make(map[string]string)
				sections[name] = current
			}
			continue
		}

		if current == nil {
			continue
		}

		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		current[key] = strings.TrimSpace(line[idx+1:])
	}

	return sections
}

// profileFromSection maps an INI section header to the profile it names:
// "[profile X]" counts as X, anything else as its literal name.
func profileFromSection(name string) string {
	if strings.HasPrefix(name, "profile ") {
		return strings.TrimSpace(strings.TrimPrefix(name, "profile "))
	}
	return name
}

// configSectionFor returns the config-file section name that holds
// settings for a profile: "[default]" for the default profile,
// "[profile X]" otherwise.
func configSectionFor(profile string) string {
	if profile == defaultProfile {
		return defaultProfile
	}
	return "profile " + profile
}
