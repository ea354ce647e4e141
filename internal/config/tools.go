package config

// SafeTools is the closed whitelist of dispatchable tools. Anything outside
// this set is rejected before dispatch.
var SafeTools = map[string]bool{
	"physical":   true,
	"existence":  true,
	"stats":      true,
	"see_active": true,
	"see_tree":   true,
	"see_raw":    true,
	"proc_list":  true,
	"net":        true,
	"gui_speak":  true,
	"ls":         true,
	"gpu":        true,
	"power":      true,
	"startup":    true,
	"shell":      true,
	"service":    true,
	"gui_click":  true,
	"gui_type":   true,
	"gui_scroll": true,
}

// InstantRule maps a substring trigger to a zero-inference (tool, cmd) pair.
type InstantRule struct {
	Trigger string
	Tool    string
	Cmd     string
}

// InstantMap is scanned in order for short requests; the first trigger whose
// substring appears in the request wins. Order is part of the contract.
var InstantMap = []InstantRule{
	{"battery", "physical", ""},
	{"power", "physical", ""},
	{"uptime", "existence", ""},
	{"ram", "stats", ""},
	{"cpu", "stats", ""},
	{"stats", "stats", ""},
	{"active window", "see_active", ""},
	{"list files", "ls", "."},
	{"processes", "proc_list", ""},
}
