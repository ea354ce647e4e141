package orchestrator

import (
	"strings"

	"umbrasol/internal/config"
)

// instantLookup resolves short requests against the instant map without any
// inference. Requests at or above the word threshold never consult it; the
// first trigger whose substring appears wins.
func instantLookup(request string, threshold int) (config.InstantRule, bool) {
	if len(strings.Fields(request)) >= threshold {
		return config.InstantRule{}, false
	}
	lower := strings.ToLower(request)
	for _, rule := range config.InstantMap {
		if strings.Contains(lower, rule.Trigger) {
			return rule, true
		}
	}
	return config.InstantRule{}, false
}
