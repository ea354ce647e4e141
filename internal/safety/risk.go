// Package safety is the gate every action passes before dispatch: a pure
// syntactic risk classifier, a pre-modification snapshotter, the closed tool
// whitelist, and the sensitive-pattern scrub.
package safety

import "regexp"

// Risk level of a command. Classification is deterministic and purely
// syntactic; new patterns may only widen HIGH or MEDIUM.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

var highRiskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+(-[a-z]*r[a-z]*f|-[a-z]*f[a-z]*r)\b`), // recursive force removal
	regexp.MustCompile(`(?i)\breboot\b`),
	regexp.MustCompile(`(?i)\bshutdown\b`),
	regexp.MustCompile(`(?i)\bformat\b`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)>\s*/dev/`),
	regexp.MustCompile(`(?i)\bdd\b.*\bof=`),
}

var mediumRiskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+`),
	regexp.MustCompile(`(?i)\bmv\s+`),
	regexp.MustCompile(`(?i)\bsystemctl\s+stop\b`),
	regexp.MustCompile(`(?i)\bkill\s+-9\b`),
	regexp.MustCompile(`(?i)\bapt(-get)?\s+(remove|purge)\b`),
	regexp.MustCompile(`(?i)\bpip\d?\s+uninstall\b`),
	regexp.MustCompile(`\$\(`),
	regexp.MustCompile("`"),
}

// AnalyzeRisk assigns a risk level to a command.
func AnalyzeRisk(command string) Risk {
	for _, p := range highRiskPatterns {
		if p.MatchString(command) {
			return RiskHigh
		}
	}
	for _, p := range mediumRiskPatterns {
		if p.MatchString(command) {
			return RiskMedium
		}
	}
	return RiskLow
}
