package orchestrator

import "strings"

// sentenceBuffer accumulates streamed talk text and hands complete spoken
// units to its sink: a flush happens on any sentence terminator or once the
// buffer exceeds the word limit, and Flush drains the residue at stream end.
type sentenceBuffer struct {
	limit int
	sink  func(string)
	buf   strings.Builder
	words int
	blank bool
}

func newSentenceBuffer(limit int, sink func(string)) *sentenceBuffer {
	return &sentenceBuffer{limit: limit, sink: sink, blank: true}
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', ',', ';', ':', '\n':
		return true
	}
	return false
}

// Write feeds a streamed delta into the buffer.
func (b *sentenceBuffer) Write(delta string) {
	for _, r := range delta {
		if r == ' ' || r == '\t' {
			if !b.blank {
				b.words++
				b.blank = true
			}
		} else {
			b.blank = false
		}
		b.buf.WriteRune(r)
		if isTerminator(r) || b.words > b.limit {
			b.Flush()
		}
	}
}

// Flush emits whatever is buffered, if anything.
func (b *sentenceBuffer) Flush() {
	s := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	b.words = 0
	b.blank = true
	if s != "" {
		b.sink(s)
	}
}
