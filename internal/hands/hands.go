// Package hands abstracts OS actions behind a capability set. One variant
// exists per OS; every variant implements every capability, returning a
// well-formed "ERROR:" string where the platform cannot serve it. Speech is
// asynchronous through an internal queue owned by the variant.
package hands

import (
	"context"
	"fmt"
	"runtime"
)

// ShellResult is the outcome of a shell execution. Timeout or launch
// failure yields a non-zero exit code and an "ERROR:" output.
type ShellResult struct {
	ExitCode int
	Output   string
}

// Hands is the capability-level abstraction over OS actions. All methods
// are total: failures come back as "ERROR:" strings, never panics or
// errors.
type Hands interface {
	// Shell and filesystem
	ExecuteShell(ctx context.Context, cmd string) ShellResult
	ListDir(ctx context.Context, path string) string

	// Introspection
	GetExistenceStats(ctx context.Context) string
	GetPhysicalState(ctx context.Context) string
	GetSystemStats(ctx context.Context) string
	GetProcessList(ctx context.Context) string
	GetGpuStats(ctx context.Context) string
	GetStartupItems(ctx context.Context) string
	CheckZombies(ctx context.Context) string

	// Process and system control
	Suspend(ctx context.Context, pid int) string
	Resume(ctx context.Context, pid int) string
	ManageService(ctx context.Context, name, action string) string
	ControlNetwork(ctx context.Context, iface, state string) string

	// Screen and UI
	ObserveUITree(ctx context.Context) string
	CaptureScreen(ctx context.Context) string
	OcrScreen(ctx context.Context) string
	ReadActiveWindow(ctx context.Context) string
	GuiClick(ctx context.Context, x, y int) string
	GuiType(ctx context.Context, text string) string
	GuiScroll(ctx context.Context, direction string) string

	// Voice (asynchronous). Speak enqueues and returns immediately;
	// StopSpeaking clears the queue and ends the current utterance.
	Speak(text string) string
	StopSpeaking() string

	// Close releases the voice consumer. Idempotent.
	Close()
}

func errUnsupported(capability string) string {
	return fmt.Sprintf("ERROR: %s not supported on %s", capability, runtime.GOOS)
}
