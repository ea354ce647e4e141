package soul

import (
	"regexp"
	"sort"
	"strings"

	"umbrasol/internal/config"
)

// toolIntent maps a tool to the keywords that signal its intent in free
// text. Scanned in order; every matching tool yields one synthetic action.
type toolIntent struct {
	Tool     string
	Keywords []string
}

var toolMap = []toolIntent{
	{"ls", []string{"list files", "list the files", "show files", "files in", "contents of"}},
	{"net", []string{"search", "look up", "google", "latest news", "web"}},
	{"physical", []string{"battery", "charge level", "thermal"}},
	{"stats", []string{"cpu", "ram", "memory usage", "system stats"}},
	{"see_active", []string{"active window", "current window"}},
	{"proc_list", []string{"processes", "process list", "running programs"}},
	{"gui_speak", []string{"speak", "read aloud", "say out loud"}},
	{"shell", []string{"run command", "execute"}},
}

var (
	leadingVerbs  = regexp.MustCompile(`(?i)^(search|find|look up|google|check|show( me)?|tell me about|what is|what's|whats)\s+`)
	leadingFiller = regexp.MustCompile(`(?i)^(in|for|using|about|the|a|and)\s+`)
	trailingNoise = regexp.MustCompile(`(?i)\s+(directory|folder)$`)
	pathAfterIn   = regexp.MustCompile(`(?i)\b(?:in|of)\s+(.+)$`)
)

// fallbackActions extracts intents from the raw response when no ACT: line
// parsed. The command text is derived from the user request, not from the
// model output. Multiple intents yield multiple actions in discovery order.
func fallbackActions(response, request string) []Action {
	respLower := strings.ToLower(response)

	var matched []toolIntent
	for _, ti := range toolMap {
		for _, kw := range ti.Keywords {
			if strings.Contains(respLower, kw) {
				matched = append(matched, ti)
				break
			}
		}
	}

	var actions []Action
	for _, ti := range matched {
		actions = append(actions, Action{
			Tool: ti.Tool,
			Cmd:  deriveCmd(ti, matched, request),
		})
	}
	return actions
}

// deriveCmd builds a command for one matched intent: strip other matched
// tools' keyword phrases, apply tool-specific extraction, then trim filler.
func deriveCmd(ti toolIntent, matched []toolIntent, request string) string {
	s := strings.ToLower(strings.TrimSpace(request))

	for _, other := range matched {
		if other.Tool == ti.Tool {
			continue
		}
		for _, kw := range other.Keywords {
			s = removePhrase(s, kw)
		}
	}

	switch ti.Tool {
	case "ls":
		if m := pathAfterIn.FindStringSubmatch(s); m != nil {
			s = m[1]
		} else {
			s = "."
		}
	case "net":
		for {
			next := strings.TrimSpace(leadingVerbs.ReplaceAllString(s, ""))
			next = strings.TrimSpace(leadingFiller.ReplaceAllString(next, ""))
			if next == s {
				break
			}
			s = next
		}
	case "shell":
		for _, kw := range ti.Keywords {
			if i := strings.Index(s, kw); i >= 0 {
				s = strings.TrimSpace(s[i+len(kw):])
				break
			}
		}
	default:
		// Introspection tools take no argument.
		s = ""
	}

	for {
		next := strings.TrimSpace(leadingFiller.ReplaceAllString(s, ""))
		if next == s {
			break
		}
		s = next
	}
	s = strings.TrimSpace(trailingNoise.ReplaceAllString(s, ""))
	return s
}

// removePhrase deletes a keyword together with an adjacent connective so
// "search the web and list files" loses the whole search mention.
func removePhrase(s, kw string) string {
	re := regexp.MustCompile(`(?i)\b(?:and\s+)?` + regexp.QuoteMeta(kw) + `\b`)
	return strings.TrimSpace(re.ReplaceAllString(s, " "))
}

// NormalizeTool maps a model-emitted tool name onto the whitelist: exact
// match first, then substring fuzzy match in either direction, else the
// harmless default "stats".
func NormalizeTool(tool string) string {
	tool = strings.ToLower(strings.TrimSpace(tool))
	if config.SafeTools[tool] {
		return tool
	}
	if tool != "" {
		names := make([]string, 0, len(config.SafeTools))
		for name := range config.SafeTools {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if strings.Contains(name, tool) || strings.Contains(tool, name) {
				return name
			}
		}
	}
	return "stats"
}
