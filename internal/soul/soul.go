// Package soul turns raw model output into typed events. It drives the
// brain client, parses the THINK/SAY/ACT line protocol incrementally, and
// falls back to keyword intent extraction when the model never emits a
// well-formed action.
package soul

import (
	"context"
	"regexp"
	"strings"

	"umbrasol/internal/brain"
	"umbrasol/internal/logging"
)

// EventType tags a stream event.
type EventType string

const (
	EventReasoning EventType = "reasoning" // internal thought, debug only
	EventTalk      EventType = "talk"      // user-visible, may be spoken
	EventAction    EventType = "action"    // ordered actions to dispatch
)

// Action is a (tool, cmd) pair to dispatch.
type Action struct {
	Tool string
	Cmd  string
}

// Event is one element of the typed stream.
type Event struct {
	Type    EventType
	Content string
	Actions []Action
}

// Decision is the collected, non-streamed form of a task stream.
type Decision struct {
	Message string
	Actions []Action
}

// Soul wraps the brain client with the line protocol.
type Soul struct {
	client *brain.Client
	name   string
}

// New builds a Soul on top of a brain client.
func New(client *brain.Client, systemName string) *Soul {
	return &Soul{client: client, name: systemName}
}

var actPattern = regexp.MustCompile(`(?i)ACT:[ \t]*([^,\n]*),[ \t]*([^\n]*)`)

// TaskStream streams the decision for a user request as typed events. The
// returned channel closes after the terminal action event (if any).
func (s *Soul) TaskStream(ctx context.Context, userRequest, contextStr string) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)

		emit := func(e Event) {
			select {
			case out <- e:
			case <-ctx.Done():
			}
		}

		p := newParser()
		chunks := s.client.Stream(ctx, s.identityPrompt(), s.taskPrompt(userRequest, contextStr), brain.Options{})
		for chunk := range chunks {
			p.feed(chunk, emit)
		}
		p.finish(emit)

		actions := s.parseActions(p.full())
		if len(actions) == 0 {
			actions = fallbackActions(p.full(), userRequest)
			if len(actions) > 0 {
				logging.Debugf("soul: intent fallback produced %d action(s)", len(actions))
			}
		}
		if len(actions) > 0 {
			emit(Event{Type: EventAction, Actions: actions})
		}
	}()
	return out
}

// parseActions extracts every ACT: line from the full response.
func (s *Soul) parseActions(response string) []Action {
	var actions []Action
	for _, m := range actPattern.FindAllStringSubmatch(response, -1) {
		tool := strings.ToLower(strings.TrimSpace(m[1]))
		cmd := strings.TrimSpace(m[2])
		// A SAY: glued onto the same line belongs to the next segment.
		if i := strings.Index(strings.ToUpper(cmd), "SAY:"); i >= 0 {
			cmd = strings.TrimSpace(cmd[:i])
		}
		actions = append(actions, Action{Tool: NormalizeTool(tool), Cmd: cmd})
	}
	return actions
}

// SynthesisStream produces a talk-only summary of a tool result.
func (s *Soul) SynthesisStream(ctx context.Context, userRequest, toolResult string) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		chunks := s.client.Stream(ctx, s.synthesisPrompt(), s.synthesisUserPrompt(userRequest, toolResult),
			brain.Options{Temperature: 0.5})
		for chunk := range chunks {
			select {
			case out <- Event{Type: EventTalk, Content: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Decide runs the task stream to completion and collects the result. Used
// by the self-correction reprompt where streaming buys nothing.
func (s *Soul) Decide(ctx context.Context, userRequest, contextStr string) Decision {
	var d Decision
	var talk strings.Builder
	for ev := range s.TaskStream(ctx, userRequest, contextStr) {
		switch ev.Type {
		case EventTalk:
			talk.WriteString(ev.Content)
		case EventAction:
			d.Actions = append(d.Actions, ev.Actions...)
		}
	}
	d.Message = strings.TrimSpace(talk.String())
	return d
}
