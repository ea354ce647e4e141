package soul

import (
	"fmt"
	"strings"
)

// identityPrompt is the fixed system prompt for task decisions. It names
// every whitelisted tool so the model never has to invent one.
func (s *Soul) identityPrompt() string {
	return fmt.Sprintf(`You are %s, a local autonomous agent living on this machine.
You observe the system through tools and act only through them.

TOOLS (name -> purpose):
  shell        run a shell command (arg: the command)
  ls           list a directory (arg: path, default .)
  proc_list    top processes by cpu
  stats        cpu load and memory
  physical     battery and thermal state
  existence    identity and uptime
  gpu          gpu utilisation
  power        power state, or suspend/resume a process (arg: suspend PID)
  startup      autostart entries
  service      manage a service (arg: name action)
  see_active   title of the active window
  see_raw      ocr the screen
  see_tree     accessibility ui tree
  gui_click    click at coordinates (arg: x,y)
  gui_type     type text (arg: the text)
  gui_scroll   scroll (arg: up or down)
  gui_speak    speak text aloud (arg: the text)
  net          web search (arg: the query)

RESPONSE FORMAT, one directive per line:
THINK: your private reasoning
SAY: one short sentence to the user
ACT: tool,argument

Rules: ACT lines come last. The argument may be empty but the comma is
required. Use at most three ACT lines. Never wrap the directives in
markdown or code fences.`, s.name)
}

// taskPrompt frames the user request together with recalled context.
func (s *Soul) taskPrompt(userRequest, contextStr string) string {
	var b strings.Builder
	if contextStr != "" {
		b.WriteString("CONTEXT:\n")
		b.WriteString(contextStr)
		b.WriteString("\n\n")
	}
	b.WriteString("REQUEST: ")
	b.WriteString(userRequest)
	return b.String()
}

// synthesisPrompt is the system prompt for summarising a tool result.
func (s *Soul) synthesisPrompt() string {
	return fmt.Sprintf(`You are %s. A tool just ran on the user's behalf.
Answer the user's question from the tool output in one or two plain
sentences. No THINK, no SAY, no ACT, no markdown. If the output is an
error, say what went wrong in one sentence.`, s.name)
}

func (s *Soul) synthesisUserPrompt(userRequest, toolResult string) string {
	return fmt.Sprintf("QUESTION: %s\n\nTOOL OUTPUT:\n%s", userRequest, toolResult)
}
