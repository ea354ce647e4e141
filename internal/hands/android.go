//go:build unix

package hands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"umbrasol/internal/config"
)

// androidHands targets Termux-style environments: a POSIX shell plus the
// termux-api toolset where available. Desktop capabilities are not served.
type androidHands struct {
	cfg   *config.Config
	voice *Voice
}

func newAndroidHands(cfg *config.Config) Hands {
	return &androidHands{
		cfg: cfg,
		voice: NewVoice(func(text string) *exec.Cmd {
			return exec.Command("termux-tts-speak", text)
		}),
	}
}

func (h *androidHands) ExecuteShell(ctx context.Context, cmd string) ShellResult {
	return runShell(ctx, h.cfg.ExecutionTimeout(), []string{"sh", "-c"}, cmd)
}

func (h *androidHands) ListDir(ctx context.Context, path string) string {
	if path == "" {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return strings.Join(names, "\n")
}

func (h *androidHands) GetExistenceStats(ctx context.Context) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("Identity: %s %s | Host: %s | OS: android | Uptime: %s | Status: ONLINE",
		h.cfg.Name, h.cfg.Version, host, readUptime())
}

func (h *androidHands) GetPhysicalState(ctx context.Context) string {
	out := capture(ctx, 10*time.Second, "termux-battery-status")
	if strings.HasPrefix(out, "ERROR:") {
		return "Battery: N/A | Thermal: N/A"
	}
	return out
}

func (h *androidHands) GetSystemStats(ctx context.Context) string {
	return fmt.Sprintf("CPU load: %s | RAM: %s", readLoadAvg(), readMemory())
}

func (h *androidHands) GetProcessList(ctx context.Context) string {
	out := capture(ctx, 10*time.Second, "ps", "-eo", "pid,comm,%cpu", "--sort=-%cpu")
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 16 {
		lines = lines[:16]
	}
	return strings.Join(lines, "\n")
}

func (h *androidHands) GetGpuStats(ctx context.Context) string     { return errUnsupported("gpu stats") }
func (h *androidHands) GetStartupItems(ctx context.Context) string { return errUnsupported("startup items") }

func (h *androidHands) CheckZombies(ctx context.Context) string {
	return errUnsupported("zombie check")
}

func (h *androidHands) Suspend(ctx context.Context, pid int) string {
	return signalPid(pid, syscall.SIGSTOP)
}

func (h *androidHands) Resume(ctx context.Context, pid int) string {
	return signalPid(pid, syscall.SIGCONT)
}

func (h *androidHands) ManageService(ctx context.Context, name, action string) string {
	return errUnsupported("service management")
}

func (h *androidHands) ControlNetwork(ctx context.Context, iface, state string) string {
	return errUnsupported("network control")
}

func (h *androidHands) ObserveUITree(ctx context.Context) string { return errUnsupported("ui tree") }

func (h *androidHands) CaptureScreen(ctx context.Context) string {
	return errUnsupported("screen capture")
}

func (h *androidHands) OcrScreen(ctx context.Context) string { return errUnsupported("ocr") }

func (h *androidHands) ReadActiveWindow(ctx context.Context) string {
	return errUnsupported("active window")
}

func (h *androidHands) GuiClick(ctx context.Context, x, y int) string {
	return errUnsupported("gui click")
}

func (h *androidHands) GuiType(ctx context.Context, text string) string {
	return errUnsupported("gui type")
}

func (h *androidHands) GuiScroll(ctx context.Context, direction string) string {
	return errUnsupported("gui scroll")
}

func (h *androidHands) Speak(text string) string { return h.voice.Speak(text) }

func (h *androidHands) StopSpeaking() string { return h.voice.StopSpeaking() }

func (h *androidHands) Close() { h.voice.Close() }
