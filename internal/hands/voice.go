package hands

import (
	"os/exec"
	"strings"
	"sync"

	"umbrasol/internal/logging"
)

const voiceQueueDepth = 64

// Voice is the asynchronous speech subsystem: a single-producer queue
// drained sequentially by one consumer goroutine. The consumer sanitizes
// each utterance and runs the platform speech child in its own process
// group so StopSpeaking can terminate it with its descendants.
type Voice struct {
	queue chan string
	quit  chan struct{}
	done  chan struct{}

	// gen advances on every interruption. An utterance dequeued under an
	// older generation is dropped before its child starts, closing the
	// window where it is in neither the queue nor current.
	mu      sync.Mutex
	current *exec.Cmd
	gen     uint64

	// newCmd builds the speaking child for an utterance. Injectable for
	// tests and per-OS variants.
	newCmd func(text string) *exec.Cmd

	closeOnce sync.Once
}

// NewVoice starts the consumer goroutine.
func NewVoice(newCmd func(text string) *exec.Cmd) *Voice {
	v := &Voice{
		queue:  make(chan string, voiceQueueDepth),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		newCmd: newCmd,
	}
	go v.consume()
	return v
}

// Speak enqueues an utterance and returns immediately. A full queue drops
// the utterance rather than blocking the caller.
func (v *Voice) Speak(text string) string {
	select {
	case v.queue <- text:
	default:
		logging.Warnf("voice: queue full, dropping utterance")
	}
	return "SUCCESS: queued"
}

// StopSpeaking clears all not-yet-consumed utterances and terminates the
// currently speaking child including its descendants. Idempotent; succeeds
// even when nothing is speaking and never blocks on an idle queue.
func (v *Voice) StopSpeaking() string {
	v.interrupt()
	for {
		select {
		case <-v.queue:
		default:
			return "SUCCESS: speech stopped"
		}
	}
}

// Close stops the consumer. Idempotent.
func (v *Voice) Close() {
	v.closeOnce.Do(func() {
		close(v.quit)
		v.interrupt()
		<-v.done
	})
}

// interrupt retires the current generation: any dequeued-but-unstarted
// utterance is dropped, and the speaking child, if any, is killed.
func (v *Voice) interrupt() {
	v.mu.Lock()
	v.gen++
	cmd := v.current
	v.mu.Unlock()
	if cmd != nil {
		killProcessGroup(cmd)
	}
}

func (v *Voice) consume() {
	defer close(v.done)
	for {
		select {
		case <-v.quit:
			return
		case text := <-v.queue:
			v.mu.Lock()
			gen := v.gen
			v.mu.Unlock()
			v.speakOne(text, gen)
		}
	}
}

func (v *Voice) speakOne(text string, gen uint64) {
	clean := sanitizeUtterance(text)
	if clean == "" {
		return
	}
	cmd := v.newCmd(clean)
	if cmd == nil {
		return
	}
	setProcessGroup(cmd)

	v.mu.Lock()
	if v.gen != gen {
		// An interruption landed between dequeue and start.
		v.mu.Unlock()
		return
	}
	if err := cmd.Start(); err != nil {
		v.mu.Unlock()
		logging.Errorf("voice: failed to start speech child: %v", err)
		return
	}
	v.current = cmd
	v.mu.Unlock()

	_ = cmd.Wait()

	v.mu.Lock()
	v.current = nil
	v.mu.Unlock()
}

// sanitizeUtterance strips markdown markers and quoting so the synthesizer
// does not read them aloud.
func sanitizeUtterance(text string) string {
	r := strings.NewReplacer(
		"*", "", "_", "", "#", "", "`", "",
		`"`, "", "'", "",
	)
	return strings.TrimSpace(r.Replace(text))
}
