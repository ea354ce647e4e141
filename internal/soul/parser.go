package soul

import "strings"

// parser performs incremental THINK/SAY/ACT segmentation over a chunked
// response. The offset into the accumulated text only ever advances; once
// an ACT: prefix is seen, talk/reasoning emission stops and the remainder
// is collected for final action parsing.
type parser struct {
	buf        strings.Builder
	pos        int
	current    EventType // "" until the first prefix
	collecting bool
	skipSpace  bool // swallow the blank run right after a prefix
}

var prefixes = []struct {
	text string
	kind EventType
}{
	{"THINK:", EventReasoning},
	{"SAY:", EventTalk},
	{"ACT:", EventAction},
}

func newParser() *parser {
	return &parser{}
}

// full returns the entire accumulated response.
func (p *parser) full() string { return p.buf.String() }

// feed appends a chunk and emits any talk/reasoning deltas it completes.
func (p *parser) feed(chunk string, emit func(Event)) {
	p.buf.WriteString(chunk)
	if p.collecting {
		return
	}

	s := p.buf.String()
	for {
		idx, kind, plen := findPrefix(s, p.pos)
		if idx < 0 {
			break
		}
		p.emitDelta(s[p.pos:idx], emit)
		p.pos = idx + plen
		if kind == EventAction {
			p.collecting = true
			return
		}
		p.current = kind
		p.skipSpace = true
	}

	safe := safeEnd(s, p.pos)
	p.emitDelta(s[p.pos:safe], emit)
	p.pos = safe
}

// finish flushes any residue held back at stream end.
func (p *parser) finish(emit func(Event)) {
	if p.collecting {
		return
	}
	s := p.buf.String()
	p.emitDelta(s[p.pos:], emit)
	p.pos = len(s)
}

func (p *parser) emitDelta(delta string, emit func(Event)) {
	if delta == "" {
		return
	}
	switch p.current {
	case EventTalk, EventReasoning:
		if p.skipSpace {
			delta = strings.TrimLeft(delta, " \t")
			if delta == "" {
				return
			}
			p.skipSpace = false
		}
		emit(Event{Type: p.current, Content: delta})
	default:
		// Text before the first prefix is discarded.
	}
}

// findPrefix locates the earliest protocol prefix beginning a line at or
// after from. Matching is case-insensitive.
func findPrefix(s string, from int) (idx int, kind EventType, plen int) {
	for i := from; i < len(s); i++ {
		if i != 0 && s[i-1] != '\n' {
			continue
		}
		for _, p := range prefixes {
			if hasPrefixFold(s[i:], p.text) {
				return i, p.kind, len(p.text)
			}
		}
	}
	return -1, "", 0
}

// safeEnd returns how far the buffer can be emitted without cutting a
// protocol prefix that straddles the chunk boundary: if the last line is a
// strict partial of a prefix, it is held back.
func safeEnd(s string, from int) int {
	lineStart := strings.LastIndexByte(s, '\n') + 1
	if lineStart < from {
		lineStart = from
	}
	tail := s[lineStart:]
	if tail == "" {
		return len(s)
	}
	for _, p := range prefixes {
		if len(tail) < len(p.text) && hasPrefixFold(p.text, tail) {
			return lineStart
		}
	}
	return len(s)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
