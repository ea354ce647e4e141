package hands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"umbrasol/internal/config"
)

// windowsHands shells out through cmd.exe and PowerShell. GUI injection is
// not served; speech uses the built-in SAPI synthesizer.
type windowsHands struct {
	cfg   *config.Config
	voice *Voice
}

func newWindowsHands(cfg *config.Config) Hands {
	return &windowsHands{
		cfg: cfg,
		voice: NewVoice(func(text string) *exec.Cmd {
			script := fmt.Sprintf(
				"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak(%q)",
				text)
			return exec.Command("powershell", "-NoProfile", "-Command", script)
		}),
	}
}

func (h *windowsHands) ExecuteShell(ctx context.Context, cmd string) ShellResult {
	return runShell(ctx, h.cfg.ExecutionTimeout(), []string{"cmd", "/C"}, cmd)
}

func (h *windowsHands) ListDir(ctx context.Context, path string) string {
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

func (h *windowsHands) GetExistenceStats(ctx context.Context) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	uptime := capture(ctx, 10*time.Second, "powershell", "-NoProfile", "-Command",
		"((Get-Date) - (Get-CimInstance Win32_OperatingSystem).LastBootUpTime).ToString()")
	if strings.HasPrefix(uptime, "ERROR:") {
		uptime = "N/A"
	}
	return fmt.Sprintf("Identity: %s %s | Host: %s | OS: windows | Uptime: %s | Status: ONLINE",
		h.cfg.Name, h.cfg.Version, host, uptime)
}

func (h *windowsHands) GetPhysicalState(ctx context.Context) string {
	battery := capture(ctx, 10*time.Second, "powershell", "-NoProfile", "-Command",
		"(Get-CimInstance Win32_Battery).EstimatedChargeRemaining")
	if strings.HasPrefix(battery, "ERROR:") || battery == "" {
		battery = "N/A"
	} else {
		battery += "%"
	}
	return fmt.Sprintf("Battery: %s | Thermal: N/A", battery)
}

func (h *windowsHands) GetSystemStats(ctx context.Context) string {
	out := capture(ctx, 15*time.Second, "powershell", "-NoProfile", "-Command",
		"$os = Get-CimInstance Win32_OperatingSystem; "+
			"'RAM: {0}MB/{1}MB' -f [int](($os.TotalVisibleMemorySize-$os.FreePhysicalMemory)/1024), [int]($os.TotalVisibleMemorySize/1024)")
	return out
}

func (h *windowsHands) GetProcessList(ctx context.Context) string {
	return capture(ctx, 15*time.Second, "powershell", "-NoProfile", "-Command",
		"Get-Process | Sort-Object CPU -Descending | Select-Object -First 15 Id,ProcessName,CPU | Format-Table | Out-String")
}

func (h *windowsHands) GetGpuStats(ctx context.Context) string {
	return capture(ctx, 10*time.Second, "nvidia-smi",
		"--query-gpu=name,utilization.gpu,memory.used,memory.total", "--format=csv,noheader")
}

func (h *windowsHands) GetStartupItems(ctx context.Context) string {
	return capture(ctx, 15*time.Second, "powershell", "-NoProfile", "-Command",
		"Get-CimInstance Win32_StartupCommand | Select-Object Name,Command | Format-Table | Out-String")
}

func (h *windowsHands) CheckZombies(ctx context.Context) string {
	return errUnsupported("zombie check")
}

func (h *windowsHands) Suspend(ctx context.Context, pid int) string {
	return errUnsupported("process suspend")
}

func (h *windowsHands) Resume(ctx context.Context, pid int) string {
	return errUnsupported("process resume")
}

func (h *windowsHands) ManageService(ctx context.Context, name, action string) string {
	switch action {
	case "start", "stop", "restart", "status":
	default:
		return fmt.Sprintf("ERROR: unknown service action %q", action)
	}
	if action == "status" {
		return capture(ctx, 30*time.Second, "sc", "query", name)
	}
	return capture(ctx, 30*time.Second, "sc", action, name)
}

func (h *windowsHands) ControlNetwork(ctx context.Context, iface, state string) string {
	mode := "disable"
	if state == "up" {
		mode = "enable"
	} else if state != "down" {
		return fmt.Sprintf("ERROR: network state must be up or down, got %q", state)
	}
	return capture(ctx, 15*time.Second, "netsh", "interface", "set", "interface", iface, mode)
}

func (h *windowsHands) ObserveUITree(ctx context.Context) string { return errUnsupported("ui tree") }

func (h *windowsHands) CaptureScreen(ctx context.Context) string {
	return errUnsupported("screen capture")
}

func (h *windowsHands) OcrScreen(ctx context.Context) string { return errUnsupported("ocr") }

func (h *windowsHands) ReadActiveWindow(ctx context.Context) string {
	return capture(ctx, 10*time.Second, "powershell", "-NoProfile", "-Command",
		"Add-Type @'\nusing System;\nusing System.Runtime.InteropServices;\nusing System.Text;\npublic class Win {\n  [DllImport(\"user32.dll\")] public static extern IntPtr GetForegroundWindow();\n  [DllImport(\"user32.dll\")] public static extern int GetWindowText(IntPtr h, StringBuilder s, int n);\n}\n'@; $sb = New-Object System.Text.StringBuilder 256; [void][Win]::GetWindowText([Win]::GetForegroundWindow(), $sb, 256); $sb.ToString()")
}

func (h *windowsHands) GuiClick(ctx context.Context, x, y int) string {
	return errUnsupported("gui click")
}

func (h *windowsHands) GuiType(ctx context.Context, text string) string {
	return errUnsupported("gui type")
}

func (h *windowsHands) GuiScroll(ctx context.Context, direction string) string {
	return errUnsupported("gui scroll")
}

func (h *windowsHands) Speak(text string) string { return h.voice.Speak(text) }

func (h *windowsHands) StopSpeaking() string { return h.voice.StopSpeaking() }

func (h *windowsHands) Close() { h.voice.Close() }
