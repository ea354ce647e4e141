package safety

import (
	"regexp"

	"umbrasol/internal/config"
	"umbrasol/internal/logging"
)

// sensitivePatterns is the closed blacklist used to scrub action arguments
// before dispatch. A match zeroes the command string; the tool may still run
// if it tolerates an empty argument.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\s+`),
	regexp.MustCompile(`\bmv\s+`),
	regexp.MustCompile(`>+`),
	regexp.MustCompile(`\bchmod\b`),
	regexp.MustCompile(`\bchown\b`),
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bapt\s+`),
	regexp.MustCompile(`\bpip\s+install`),
	regexp.MustCompile(`\bwget\b`),
	regexp.MustCompile(`\bcurl\b.*-o`),
	regexp.MustCompile(`\bkill\s+`),
	regexp.MustCompile(`\$\(`),
	regexp.MustCompile("`"),
	regexp.MustCompile(`\bdd\b`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`>\s*/dev/`),
}

// IsSensitive reports whether the command matches any blacklisted pattern.
func IsSensitive(cmd string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(cmd) {
			return true
		}
	}
	return false
}

// Scrub replaces a sensitive command with the empty string.
func Scrub(cmd string) string {
	if IsSensitive(cmd) {
		logging.Warnf("safety: scrubbed sensitive command: %q", cmd)
		return ""
	}
	return cmd
}

// AllowedTool reports whether the tool is in the closed whitelist.
func AllowedTool(tool string) bool {
	return config.SafeTools[tool]
}
