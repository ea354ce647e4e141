// Package orchestrator owns the request lifecycle: task rows, context
// sensing, the cache and heuristic layers, the streaming decision, the
// per-action safety and retry loop, synthesis, and the learning writebacks.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"umbrasol/internal/config"
	"umbrasol/internal/hands"
	"umbrasol/internal/internet"
	"umbrasol/internal/logging"
	"umbrasol/internal/safety"
	"umbrasol/internal/soul"
	"umbrasol/internal/store"
)

const (
	displayLimit    = 200 // result truncation for the user interface
	habitThreshold  = 3   // repeats before a habit becomes a prediction
	failureNotice   = "I failed to complete the task."
	highRiskWarning = "Warning. High risk action ahead."
)

// Orchestrator drives one request at a time through the layered pipeline.
type Orchestrator struct {
	cfg       *config.Config
	store     *store.Store
	hands     hands.Hands
	soul      *soul.Soul
	disp      *dispatcher
	voiceMode bool

	// OnTalk receives user-visible text as it streams; OnResult receives
	// truncated tool output. Both optional.
	OnTalk   func(string)
	OnResult func(string)
}

// New wires the orchestrator from its collaborators.
func New(cfg *config.Config, st *store.Store, h hands.Hands, sl *soul.Soul, net *internet.Searcher, voiceMode bool) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     st,
		hands:     h,
		soul:      sl,
		disp:      newDispatcher(cfg, h, net),
		voiceMode: voiceMode,
	}
}

func (o *Orchestrator) emitTalk(s string) {
	if o.OnTalk != nil {
		o.OnTalk(s)
	}
}

func (o *Orchestrator) emitResult(s string) {
	if o.OnResult != nil {
		o.OnResult(truncate(s, displayLimit))
	}
}

// Execute runs a fresh request end to end and returns the assembled
// response. Failure to create the task row aborts the request.
func (o *Orchestrator) Execute(ctx context.Context, userRequest string) (string, error) {
	taskID, err := o.store.AddTask(userRequest)
	if err != nil {
		if logErr := o.store.LogAction(userRequest, "ERROR: persistence", string(safety.RiskLow)); logErr != nil {
			logging.Errorf("orchestrator: audit after failed task create: %v", logErr)
		}
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return o.run(ctx, userRequest, taskID)
}

// Resume re-runs a task that was pending when a previous process died.
func (o *Orchestrator) Resume(ctx context.Context, task store.Task) (string, error) {
	logging.Infof("orchestrator: resuming task %d: %q", task.ID, task.Request)
	return o.run(ctx, task.Request, task.ID)
}

func (o *Orchestrator) run(ctx context.Context, userRequest string, taskID int64) (string, error) {
	start := time.Now()
	reqID := uuid.NewString()[:8]
	logging.Infof("orchestrator[%s]: task %d: %q", reqID, taskID, userRequest)

	if err := o.store.UpdateTaskCheckpoint(taskID, store.TaskRunning, `{"stage":"started"}`); err != nil {
		logging.Warnf("orchestrator[%s]: checkpoint: %v", reqID, err)
	}

	// Context sensing, best effort.
	window := o.hands.ReadActiveWindow(ctx)
	if strings.HasPrefix(window, "ERROR:") {
		window = ""
	}
	contextKey := store.ContextKey(time.Now(), window)
	contextStr := o.buildContext(window, contextKey)

	// The prior utterance yields to the new request.
	o.hands.StopSpeaking()

	// Cache layer: one dispatch, no retries.
	fingerprint := store.Fingerprint(userRequest)
	if tool, cmd, ok, err := o.store.GetCache(fingerprint); err == nil && ok {
		logging.Infof("orchestrator[%s]: cache hit -> %s(%s)", reqID, tool, cmd)
		result := o.disp.Dispatch(ctx, tool, cmd)
		o.finishInstant(taskID, contextKey, tool, cmd, result)
		return result, nil
	} else if err != nil {
		logging.Warnf("orchestrator[%s]: cache read: %v", reqID, err)
	}

	// Heuristic layer: short requests resolve from the instant map.
	if rule, ok := instantLookup(userRequest, o.cfg.Execution.HeuristicWordThreshold); ok {
		logging.Infof("orchestrator[%s]: instant hit %q -> %s(%s)", reqID, rule.Trigger, rule.Tool, rule.Cmd)
		result := o.disp.Dispatch(ctx, rule.Tool, rule.Cmd)
		o.finishInstant(taskID, contextKey, rule.Tool, rule.Cmd, result)
		return result, nil
	}

	// AI layer.
	speech := newSentenceBuffer(o.cfg.Execution.SentenceBufferWords, func(s string) {
		o.hands.Speak(s)
	})

	var talk strings.Builder
	var actions []soul.Action
	for ev := range o.soul.TaskStream(ctx, userRequest, contextStr) {
		switch ev.Type {
		case soul.EventReasoning:
			logging.Debugf("orchestrator[%s]: think: %s", reqID, strings.TrimSpace(ev.Content))
		case soul.EventTalk:
			text := stripProtocol(ev.Content)
			if text == "" {
				continue
			}
			talk.WriteString(text)
			o.emitTalk(text)
			if o.voiceMode {
				speech.Write(text)
			}
		case soul.EventAction:
			actions = append(actions, ev.Actions...)
		}
	}
	if o.voiceMode {
		speech.Flush()
	}

	message := strings.TrimSpace(talk.String())
	if len(actions) == 0 && message == "" {
		const noResponse = "I had no response for that request."
		o.emitTalk(noResponse)
		if o.voiceMode {
			o.hands.Speak(noResponse)
		}
		o.checkpoint(taskID, store.TaskFailed)
		return noResponse, nil
	}

	// Action execution with self-correction.
	success := len(actions) == 0 // a pure-talk answer counts as success
	var lastResult, lastTool, lastCmd string
	for _, action := range actions {
		result, tool, cmd, ok := o.runAction(ctx, reqID, userRequest, contextStr, action)
		lastResult, lastTool, lastCmd = result, tool, cmd
		if ok {
			success = true
		} else {
			success = false
			break
		}
	}

	// Synthesis pass over the last successful result.
	if success && lastResult != "" {
		var synth strings.Builder
		for ev := range o.soul.SynthesisStream(ctx, userRequest, lastResult) {
			text := stripProtocol(ev.Content)
			if text == "" {
				continue
			}
			synth.WriteString(text)
			o.emitTalk(text)
			if o.voiceMode {
				speech.Write(text)
			}
		}
		if o.voiceMode {
			speech.Flush()
		}
		if s := strings.TrimSpace(synth.String()); s != "" {
			if message != "" {
				message += "\n"
			}
			message += s
		}
	}

	// Learning: only a single successful action teaches the fast layers.
	// A command that tripped the sensitive-pattern scrub never does.
	if success && len(actions) == 1 && !safety.IsSensitive(lastCmd) {
		if err := o.store.SetCache(fingerprint, lastTool, lastCmd); err != nil {
			logging.Warnf("orchestrator[%s]: cache write: %v", reqID, err)
		}
		if err := o.store.LearnHabit(contextKey, lastTool+":"+lastCmd); err != nil {
			logging.Warnf("orchestrator[%s]: habit write: %v", reqID, err)
		}
	}
	if len(actions) > 0 {
		lesson := store.Lesson{Tool: lastTool, Action: lastCmd}
		if !success {
			lesson.Error = lastResult
		}
		if err := o.store.SaveExperience(store.TaskKey(userRequest), lesson); err != nil {
			logging.Warnf("orchestrator[%s]: experience write: %v", reqID, err)
		}
	}

	if !success && o.voiceMode {
		o.hands.Speak(failureNotice)
	}

	status := store.TaskCompleted
	if !success {
		status = store.TaskFailed
	}
	o.checkpoint(taskID, status)
	logging.Infof("orchestrator[%s]: %s in %.3fs", reqID, status, time.Since(start).Seconds())

	if message != "" {
		return message, nil
	}
	return lastResult, nil
}

// runAction executes one action through the safety gate and the bounded
// self-correction loop. It returns the final result, the final (tool, cmd)
// actually dispatched, and whether the action succeeded.
func (o *Orchestrator) runAction(ctx context.Context, reqID, userRequest, contextStr string, action soul.Action) (result, tool, cmd string, ok bool) {
	tool, cmd = action.Tool, action.Cmd
	risk := o.gateAction(reqID, tool, cmd)

	tried := map[string]bool{}
	for attempt := 0; ; attempt++ {
		tried[tool+"\x00"+cmd] = true
		result = o.disp.Dispatch(ctx, tool, cmd)
		if !failedResult(result) {
			ok = true
			break
		}
		logging.Warnf("orchestrator[%s]: %s(%s) attempt %d: %s", reqID, tool, cmd, attempt, truncate(result, displayLimit))
		if attempt >= o.cfg.Execution.MaxRetries {
			break
		}

		select {
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		case <-ctx.Done():
			return result, tool, cmd, false
		}

		reprompt := fmt.Sprintf("%s\n\nThe action %s(%s) failed with: %s\nSuggest one corrected action.",
			userRequest, tool, cmd, result)
		d := o.soul.Decide(ctx, reprompt, contextStr)
		if len(d.Actions) == 0 {
			logging.Warnf("orchestrator[%s]: no corrected action suggested", reqID)
			break
		}
		next := d.Actions[0]
		if next.Tool == tool && next.Cmd == cmd {
			logging.Warnf("orchestrator[%s]: circuit breaker: identical retry %s(%s)", reqID, tool, cmd)
			break
		}
		if tried[next.Tool+"\x00"+next.Cmd] {
			logging.Warnf("orchestrator[%s]: circuit breaker: already tried %s(%s)", reqID, next.Tool, next.Cmd)
			break
		}
		tool, cmd = next.Tool, next.Cmd
		risk = o.gateAction(reqID, tool, cmd)
	}

	if err := o.store.LogAction(fmt.Sprintf("%s(%s)", tool, cmd), result, string(risk)); err != nil {
		logging.Warnf("orchestrator[%s]: audit write: %v", reqID, err)
	}
	o.emitResult(result)
	return result, tool, cmd, ok
}

// gateAction classifies risk, snapshots any existing path arguments for
// medium and high risk commands, and voices a warning on high risk.
func (o *Orchestrator) gateAction(reqID, tool, cmd string) safety.Risk {
	risk := safety.AnalyzeRisk(tool + " " + cmd)
	if risk == safety.RiskLow {
		return risk
	}
	for _, field := range strings.Fields(cmd) {
		if _, err := os.Stat(field); err != nil {
			continue
		}
		dst, err := safety.Snapshot(o.cfg.BackupDir(), field)
		if err != nil {
			logging.Warnf("orchestrator[%s]: snapshot %s: %v", reqID, field, err)
		} else if dst != "" {
			logging.Infof("orchestrator[%s]: snapshot %s -> %s", reqID, field, dst)
		}
	}
	if risk == safety.RiskHigh && o.voiceMode {
		o.hands.Speak(highRiskWarning)
	}
	return risk
}

// finishInstant closes out a cache or heuristic hit: audit, habit, result
// display, terminal checkpoint. The cache itself is never written here.
func (o *Orchestrator) finishInstant(taskID int64, contextKey, tool, cmd, result string) {
	risk := safety.AnalyzeRisk(tool + " " + cmd)
	if err := o.store.LogAction(fmt.Sprintf("%s(%s)", tool, cmd), result, string(risk)); err != nil {
		logging.Warnf("orchestrator: audit write: %v", err)
	}
	if err := o.store.LearnHabit(contextKey, tool+":"+cmd); err != nil {
		logging.Warnf("orchestrator: habit write: %v", err)
	}
	o.emitResult(result)

	status := store.TaskCompleted
	if failedResult(result) {
		status = store.TaskFailed
	}
	o.checkpoint(taskID, status)
}

func (o *Orchestrator) checkpoint(taskID int64, status string) {
	if err := o.store.UpdateTaskCheckpoint(taskID, status, `{"stage":"finished"}`); err != nil {
		logging.Warnf("orchestrator: checkpoint task %d: %v", taskID, err)
	}
}

// buildContext assembles the prompt context from the active window and the
// habitual command for the current context key.
func (o *Orchestrator) buildContext(window, contextKey string) string {
	var parts []string
	if window != "" {
		parts = append(parts, "Active window: "+window)
	}
	if cmd, count, err := o.store.PredictHabit(contextKey, habitThreshold); err == nil && cmd != "" {
		parts = append(parts, fmt.Sprintf("Habitual command in this context (%dx): %s", count, cmd))
	}
	return strings.Join(parts, "\n")
}

var strayPrefix = regexp.MustCompile(`(?i)\b(?:THINK|SAY|ACT):[ \t]*`)

// stripProtocol removes stray protocol prefixes from displayed talk.
func stripProtocol(s string) string {
	return strayPrefix.ReplaceAllString(s, "")
}

func failedResult(result string) bool {
	return strings.HasPrefix(result, "ERROR:") || strings.HasPrefix(result, "BLOCKED:")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
