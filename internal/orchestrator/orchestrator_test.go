package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbrasol/internal/brain"
	"umbrasol/internal/config"
	"umbrasol/internal/hands"
	"umbrasol/internal/internet"
	"umbrasol/internal/soul"
	"umbrasol/internal/store"
)

// fakeHands records every dispatch and answers from a canned result map.
type fakeHands struct {
	mu      sync.Mutex
	calls   []string
	results map[string]string
}

func newFakeHands() *fakeHands {
	return &fakeHands{results: map[string]string{}}
}

func (f *fakeHands) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeHands) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeHands) ret(op string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.results[op]; ok {
		return v
	}
	return "ok " + op
}

func (f *fakeHands) ExecuteShell(ctx context.Context, cmd string) hands.ShellResult {
	f.record("shell:" + cmd)
	out := f.ret("shell")
	code := 0
	if strings.HasPrefix(out, "ERROR:") {
		code = 1
	}
	return hands.ShellResult{ExitCode: code, Output: out}
}

func (f *fakeHands) ListDir(ctx context.Context, path string) string {
	f.record("ls:" + path)
	return f.ret("ls")
}

func (f *fakeHands) GetExistenceStats(ctx context.Context) string { f.record("existence"); return f.ret("existence") }
func (f *fakeHands) GetPhysicalState(ctx context.Context) string  { f.record("physical"); return f.ret("physical") }
func (f *fakeHands) GetSystemStats(ctx context.Context) string    { f.record("stats"); return f.ret("stats") }
func (f *fakeHands) GetProcessList(ctx context.Context) string    { f.record("proc_list"); return f.ret("proc_list") }
func (f *fakeHands) GetGpuStats(ctx context.Context) string       { f.record("gpu"); return f.ret("gpu") }
func (f *fakeHands) GetStartupItems(ctx context.Context) string   { f.record("startup"); return f.ret("startup") }
func (f *fakeHands) CheckZombies(ctx context.Context) string      { f.record("zombies"); return "No zombie processes" }

func (f *fakeHands) Suspend(ctx context.Context, pid int) string {
	f.record(fmt.Sprintf("suspend:%d", pid))
	return "SUCCESS: suspended"
}

func (f *fakeHands) Resume(ctx context.Context, pid int) string {
	f.record(fmt.Sprintf("resume:%d", pid))
	return "SUCCESS: resumed"
}

func (f *fakeHands) ManageService(ctx context.Context, name, action string) string {
	f.record("service:" + name + ":" + action)
	return f.ret("service")
}

func (f *fakeHands) ControlNetwork(ctx context.Context, iface, state string) string {
	f.record("network:" + iface + ":" + state)
	return f.ret("network")
}

func (f *fakeHands) ObserveUITree(ctx context.Context) string    { f.record("see_tree"); return f.ret("see_tree") }
func (f *fakeHands) CaptureScreen(ctx context.Context) string    { f.record("capture"); return f.ret("capture") }
func (f *fakeHands) OcrScreen(ctx context.Context) string        { f.record("see_raw"); return f.ret("see_raw") }
func (f *fakeHands) ReadActiveWindow(ctx context.Context) string { f.record("see_active"); return "Notes - Editor" }

func (f *fakeHands) GuiClick(ctx context.Context, x, y int) string {
	f.record(fmt.Sprintf("click:%d,%d", x, y))
	return "SUCCESS: clicked"
}

func (f *fakeHands) GuiType(ctx context.Context, text string) string { f.record("type:" + text); return "SUCCESS: typed" }
func (f *fakeHands) GuiScroll(ctx context.Context, dir string) string { f.record("scroll:" + dir); return "SUCCESS: scrolled" }
func (f *fakeHands) Speak(text string) string                         { f.record("speak:" + text); return "SUCCESS: queued" }
func (f *fakeHands) StopSpeaking() string                             { f.record("stop_speaking"); return "SUCCESS: speech stopped" }
func (f *fakeHands) Close()                                           {}

// scriptedBrain serves one canned response per call, clamping to the last.
func scriptedBrain(t *testing.T, responses ...string) (*config.Config, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		enc := json.NewEncoder(w)
		enc.Encode(map[string]any{"response": responses[n], "done": false})
		enc.Encode(map[string]any{"done": true})
	}))
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Brain.BaseURL = srv.URL
	cfg.Brain.StreamTimeoutSec = 10
	cfg.Brain.ChunkTimeoutSec = 5
	return cfg, &calls
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, h hands.Hands) (*Orchestrator, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "umbrasol.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sl := soul.New(brain.NewClient(cfg), "Umbrasol")
	return New(cfg, st, h, sl, internet.NewSearcher(cfg), false), st
}

func TestInstantLookup(t *testing.T) {
	rule, ok := instantLookup("check battery", 5)
	require.True(t, ok)
	assert.Equal(t, "physical", rule.Tool)

	rule, ok = instantLookup("list files", 5)
	require.True(t, ok)
	assert.Equal(t, "ls", rule.Tool)
	assert.Equal(t, ".", rule.Cmd)

	// Definition order decides ties: battery beats power.
	rule, ok = instantLookup("battery power", 5)
	require.True(t, ok)
	assert.Equal(t, "physical", rule.Tool)

	// ram precedes cpu in the map.
	rule, ok = instantLookup("ram and cpu", 5)
	require.True(t, ok)
	assert.Equal(t, "stats", rule.Tool)

	// Exactly at the threshold the heuristic is bypassed.
	_, ok = instantLookup("what is my battery level", 5)
	assert.False(t, ok)

	_, ok = instantLookup("open the garden gate", 5)
	assert.False(t, ok)
}

func TestSentenceBufferFlushes(t *testing.T) {
	var got []string
	b := newSentenceBuffer(8, func(s string) { got = append(got, s) })

	b.Write("Hello there")
	assert.Empty(t, got)
	b.Write(". More")
	require.Len(t, got, 1)
	assert.Equal(t, "Hello there.", got[0])

	b.Flush()
	require.Len(t, got, 2)
	assert.Equal(t, "More", got[1])
}

func TestSentenceBufferWordOverflow(t *testing.T) {
	var got []string
	b := newSentenceBuffer(8, func(s string) { got = append(got, s) })

	b.Write("one two three four five six seven eight nine ten")
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(strings.Fields(got[0])), 9)
}

func TestDispatchShaping(t *testing.T) {
	h := newFakeHands()
	cfg := config.DefaultConfig()
	d := newDispatcher(cfg, h, internet.NewSearcher(cfg))
	ctx := context.Background()

	d.Dispatch(ctx, "ls", "")
	d.Dispatch(ctx, "gui_click", "10, 20")
	d.Dispatch(ctx, "power", "suspend 4242")
	d.Dispatch(ctx, "service", "network eth0 down")
	d.Dispatch(ctx, "service", "nginx restart")

	assert.Equal(t, []string{
		"ls:.",
		"click:10,20",
		"suspend:4242",
		"network:eth0:down",
		"service:nginx:restart",
	}, h.recorded())

	assert.True(t, strings.HasPrefix(d.Dispatch(ctx, "gui_click", "here"), "ERROR:"))
	assert.True(t, strings.HasPrefix(d.Dispatch(ctx, "wizard", "x"), "BLOCKED:"))
}

func TestDispatchScrubsSensitiveCmd(t *testing.T) {
	h := newFakeHands()
	cfg := config.DefaultConfig()
	d := newDispatcher(cfg, h, internet.NewSearcher(cfg))

	d.Dispatch(context.Background(), "shell", "sudo rm -rf /tmp/foo")
	assert.Equal(t, []string{"shell:"}, h.recorded())
}

func TestExecuteHeuristicPath(t *testing.T) {
	cfg, brainCalls := scriptedBrain(t, "SAY: never used")
	h := newFakeHands()
	h.results["physical"] = "Battery: 81%"
	o, st := newTestOrchestrator(t, cfg, h)

	got, err := o.Execute(context.Background(), "check battery")
	require.NoError(t, err)
	assert.Equal(t, "Battery: 81%", got)
	assert.EqualValues(t, 0, atomic.LoadInt32(brainCalls))

	audit, err := st.RecentAudit(1)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "physical()", audit[0].Command)
	assert.Equal(t, "LOW", audit[0].RiskLevel)

	// Heuristic hits never write the cache.
	_, _, ok, err := st.GetCache(store.Fingerprint("check battery"))
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := st.GetPendingTasks()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestExecuteCachePathSkipsBrain(t *testing.T) {
	cfg, brainCalls := scriptedBrain(t, "SAY: never used")
	h := newFakeHands()
	h.results["ls"] = "a.txt"
	o, st := newTestOrchestrator(t, cfg, h)

	req := "show the contents of my home folder"
	require.NoError(t, st.SetCache(store.Fingerprint(req), "ls", "/home"))

	got, err := o.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got)
	assert.Contains(t, h.recorded(), "ls:/home")
	assert.EqualValues(t, 0, atomic.LoadInt32(brainCalls))
}

func TestExecuteAILayerLearns(t *testing.T) {
	cfg, _ := scriptedBrain(t,
		"THINK: need a listing\nSAY: Checking the folder.\nACT: ls,/tmp",
		"The folder holds two files.")
	h := newFakeHands()
	h.results["ls"] = "a.txt\nb.txt"
	o, st := newTestOrchestrator(t, cfg, h)

	var talk strings.Builder
	o.OnTalk = func(s string) { talk.WriteString(s) }

	req := "show me the files under slash tmp"
	got, err := o.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, got, "Checking the folder.")
	assert.Contains(t, talk.String(), "Checking the folder.")
	assert.Contains(t, talk.String(), "The folder holds two files.")

	tool, cmd, ok, err := st.GetCache(store.Fingerprint(req))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ls", tool)
	assert.Equal(t, "/tmp", cmd)

	pending, err := st.GetPendingTasks()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestExecuteCircuitBreakerOnIdenticalRetry(t *testing.T) {
	cfg, _ := scriptedBrain(t,
		"ACT: shell,curl localhost:9",
		"ACT: shell,curl localhost:9") // reprompt suggests the same action
	cfg.Execution.MaxRetries = 2
	h := newFakeHands()
	h.results["shell"] = "ERROR: connection refused"
	o, st := newTestOrchestrator(t, cfg, h)

	_, err := o.Execute(context.Background(), "poke the local service for me please")
	require.NoError(t, err)

	shellCalls := 0
	for _, c := range h.recorded() {
		if strings.HasPrefix(c, "shell:") {
			shellCalls++
		}
	}
	assert.Equal(t, 1, shellCalls, "identical retry must not dispatch again")

	audit, aerr := st.RecentAudit(1)
	require.NoError(t, aerr)
	require.Len(t, audit, 1)
	assert.True(t, strings.HasPrefix(audit[0].Result, "ERROR:"))
}

func TestExecuteRetryWithDifferentActionSucceeds(t *testing.T) {
	cfg, _ := scriptedBrain(t,
		"ACT: shell,curl localhost:9",
		"ACT: ls,/var/log",
		"The log directory was listed instead.")
	h := newFakeHands()
	h.results["shell"] = "ERROR: connection refused"
	h.results["ls"] = "syslog"
	o, st := newTestOrchestrator(t, cfg, h)

	_, err := o.Execute(context.Background(), "poke the local service for me please")
	require.NoError(t, err)

	calls := h.recorded()
	assert.Contains(t, calls, "shell:curl localhost:9")
	assert.Contains(t, calls, "ls:/var/log")

	pending, perr := st.GetPendingTasks()
	require.NoError(t, perr)
	assert.Empty(t, pending, "task must end terminal after a successful retry")
}

func TestExecuteSensitiveActionScrubbedAndNotCached(t *testing.T) {
	cfg, _ := scriptedBrain(t,
		"SAY: Removing it.\nACT: shell,rm -rf /tmp/foo",
		"Done with the cleanup.")
	h := newFakeHands()
	h.results["shell"] = ""
	o, st := newTestOrchestrator(t, cfg, h)

	req := "please clean up that scratch folder now"
	_, err := o.Execute(context.Background(), req)
	require.NoError(t, err)

	// The sensitive pattern empties the command before dispatch.
	assert.Contains(t, h.recorded(), "shell:")
	for _, c := range h.recorded() {
		assert.NotContains(t, c, "rm -rf")
	}

	_, _, ok, err := st.GetCache(store.Fingerprint(req))
	require.NoError(t, err)
	assert.False(t, ok, "scrubbed commands must not teach the cache")
}

func TestStripProtocol(t *testing.T) {
	assert.Equal(t, "Checking.", stripProtocol("SAY: Checking."))
	assert.Equal(t, "plain", stripProtocol("plain"))
	assert.Equal(t, "a b", stripProtocol("a THINK: b"))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 300)
	assert.Len(t, truncate(long, 200), 200)
	assert.Equal(t, "short", truncate("short", 200))
}
