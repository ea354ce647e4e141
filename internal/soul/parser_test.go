package soul

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func runParser(t *testing.T, chunks []string) []Event {
	t.Helper()
	var events []Event
	p := newParser()
	emit := func(e Event) { events = append(events, e) }
	for _, c := range chunks {
		p.feed(c, emit)
	}
	p.finish(emit)
	return events
}

func joined(events []Event, kind EventType) string {
	var b strings.Builder
	for _, e := range events {
		if e.Type == kind {
			b.WriteString(e.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

func TestParserSegmentsSingleChunk(t *testing.T) {
	events := runParser(t, []string{"THINK: user asks window\nSAY: Checking.\nACT: see_active,"})

	assert.Equal(t, "user asks window", joined(events, EventReasoning))
	assert.Equal(t, "Checking.", joined(events, EventTalk))
}

func TestParserPrefixSplitAcrossChunks(t *testing.T) {
	// "SAY:" arrives byte by byte; nothing before it may leak as talk.
	events := runParser(t, []string{"THINK: hm\nSA", "Y: Do", "ne."})

	assert.Equal(t, "hm", joined(events, EventReasoning))
	assert.Equal(t, "Done.", joined(events, EventTalk))
}

func TestParserCaseInsensitivePrefixes(t *testing.T) {
	events := runParser(t, []string{"think: a\nsay: b\n"})

	assert.Equal(t, "a", joined(events, EventReasoning))
	assert.Equal(t, "b", joined(events, EventTalk))
}

func TestParserDropsPreamble(t *testing.T) {
	events := runParser(t, []string{"Sure, here is my plan.\nSAY: Working on it."})

	assert.Empty(t, joined(events, EventReasoning))
	assert.Equal(t, "Working on it.", joined(events, EventTalk))
}

func TestParserStopsEmittingAfterAct(t *testing.T) {
	events := runParser(t, []string{"SAY: ok\nACT: ls,.\nSAY: leaked"})

	assert.Equal(t, "ok", joined(events, EventTalk))
}

func TestParserMidLinePrefixIgnored(t *testing.T) {
	// A prefix not at line start is content, not a directive.
	events := runParser(t, []string{"SAY: I will ACT: soon\n"})

	assert.Equal(t, "I will ACT: soon", joined(events, EventTalk))
}

func TestParserEmptyStream(t *testing.T) {
	events := runParser(t, nil)
	assert.Empty(t, events)
}
