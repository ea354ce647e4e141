//go:build unix

package hands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"umbrasol/internal/config"
)

// linuxHands is the Linux capability variant. Desktop queries go through
// the common X11 tooling (xdotool, scrot, tesseract) and degrade to
// "ERROR:" strings on headless hosts.
type linuxHands struct {
	cfg   *config.Config
	voice *Voice
}

func newLinuxHands(cfg *config.Config) Hands {
	return &linuxHands{
		cfg: cfg,
		voice: NewVoice(func(text string) *exec.Cmd {
			return exec.Command("espeak", text)
		}),
	}
}

func (h *linuxHands) ExecuteShell(ctx context.Context, cmd string) ShellResult {
	return runShell(ctx, h.cfg.ExecutionTimeout(), []string{"sh", "-c"}, cmd)
}

func (h *linuxHands) ListDir(ctx context.Context, path string) string {
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

func (h *linuxHands) GetExistenceStats(ctx context.Context) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("Identity: %s %s | Host: %s | OS: linux | Uptime: %s | Status: ONLINE",
		h.cfg.Name, h.cfg.Version, host, readUptime())
}

func readUptime() string {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return "N/A"
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "N/A"
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return "N/A"
	}
	return (time.Duration(secs) * time.Second).Truncate(time.Minute).String()
}

func (h *linuxHands) GetPhysicalState(ctx context.Context) string {
	return fmt.Sprintf("Battery: %s | Thermal: %s", readBattery(), readThermal())
}

func readBattery() string {
	matches, _ := filepath.Glob("/sys/class/power_supply/BAT*/capacity")
	for _, m := range matches {
		if data, err := os.ReadFile(m); err == nil {
			return strings.TrimSpace(string(data)) + "%"
		}
	}
	return "N/A"
}

func readThermal() string {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return "N/A"
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1fC", float64(milli)/1000)
}

func (h *linuxHands) GetSystemStats(ctx context.Context) string {
	return fmt.Sprintf("CPU load: %s | RAM: %s | Disk: %s",
		readLoadAvg(), readMemory(), readDiskFree("/"))
}

func readLoadAvg() string {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return "N/A"
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return "N/A"
	}
	return strings.Join(fields[:3], " ")
}

func readMemory() string {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return "N/A"
	}
	var totalKB, availKB int
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.Atoi(fields[1])
		case "MemAvailable:":
			availKB, _ = strconv.Atoi(fields[1])
		}
	}
	if totalKB == 0 {
		return "N/A"
	}
	usedMB := (totalKB - availKB) / 1024
	return fmt.Sprintf("%dMB/%dMB", usedMB, totalKB/1024)
}

func readDiskFree(path string) string {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return "N/A"
	}
	freeGB := float64(st.Bavail) * float64(st.Bsize) / (1 << 30)
	totalGB := float64(st.Blocks) * float64(st.Bsize) / (1 << 30)
	return fmt.Sprintf("%.1fGB free of %.1fGB", freeGB, totalGB)
}

func (h *linuxHands) GetProcessList(ctx context.Context) string {
	out := capture(ctx, 10*time.Second, "ps", "-eo", "pid,comm,%cpu,%mem", "--sort=-%cpu")
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	lines := strings.Split(out, "\n")
	// Header plus top 15 by cpu.
	if len(lines) > 16 {
		lines = lines[:16]
	}
	return strings.Join(lines, "\n")
}

func (h *linuxHands) GetGpuStats(ctx context.Context) string {
	return capture(ctx, 10*time.Second, "nvidia-smi",
		"--query-gpu=name,utilization.gpu,memory.used,memory.total", "--format=csv,noheader")
}

func (h *linuxHands) GetStartupItems(ctx context.Context) string {
	dirs := []string{"/etc/xdg/autostart"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "autostart"))
	}
	var items []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			items = append(items, e.Name())
		}
	}
	if len(items) == 0 {
		return "No startup items found"
	}
	sort.Strings(items)
	return strings.Join(items, "\n")
}

func (h *linuxHands) CheckZombies(ctx context.Context) string {
	out := capture(ctx, 10*time.Second, "ps", "-eo", "pid,stat,comm")
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	var zombies []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[1], "Z") {
			zombies = append(zombies, line)
		}
	}
	if len(zombies) == 0 {
		return "No zombie processes"
	}
	return strings.Join(zombies, "\n")
}

func (h *linuxHands) Suspend(ctx context.Context, pid int) string {
	return signalPid(pid, syscall.SIGSTOP)
}

func (h *linuxHands) Resume(ctx context.Context, pid int) string {
	return signalPid(pid, syscall.SIGCONT)
}

func (h *linuxHands) ManageService(ctx context.Context, name, action string) string {
	switch action {
	case "start", "stop", "restart", "status":
	default:
		return fmt.Sprintf("ERROR: unknown service action %q", action)
	}
	return capture(ctx, 30*time.Second, "systemctl", action, name)
}

func (h *linuxHands) ControlNetwork(ctx context.Context, iface, state string) string {
	if state != "up" && state != "down" {
		return fmt.Sprintf("ERROR: network state must be up or down, got %q", state)
	}
	return capture(ctx, 10*time.Second, "ip", "link", "set", iface, state)
}

func (h *linuxHands) ObserveUITree(ctx context.Context) string {
	return capture(ctx, 10*time.Second, "wmctrl", "-l")
}

func (h *linuxHands) CaptureScreen(ctx context.Context) string {
	dest := filepath.Join(os.TempDir(), fmt.Sprintf("umbrasol_screen_%d.png", time.Now().UnixNano()))
	out := capture(ctx, 15*time.Second, "scrot", dest)
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	return dest
}

func (h *linuxHands) OcrScreen(ctx context.Context) string {
	shot := h.CaptureScreen(ctx)
	if strings.HasPrefix(shot, "ERROR:") {
		return shot
	}
	defer os.Remove(shot)
	return capture(ctx, 30*time.Second, "tesseract", shot, "stdout")
}

func (h *linuxHands) ReadActiveWindow(ctx context.Context) string {
	return capture(ctx, 5*time.Second, "xdotool", "getactivewindow", "getwindowname")
}

func (h *linuxHands) GuiClick(ctx context.Context, x, y int) string {
	out := capture(ctx, 5*time.Second, "xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y), "click", "1")
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	return fmt.Sprintf("SUCCESS: clicked %d,%d", x, y)
}

func (h *linuxHands) GuiType(ctx context.Context, text string) string {
	out := capture(ctx, 10*time.Second, "xdotool", "type", "--delay", "40", text)
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	return "SUCCESS: typed"
}

func (h *linuxHands) GuiScroll(ctx context.Context, direction string) string {
	button := "5"
	if direction == "up" {
		button = "4"
	}
	out := capture(ctx, 5*time.Second, "xdotool", "click", "--repeat", "3", button)
	if strings.HasPrefix(out, "ERROR:") {
		return out
	}
	return "SUCCESS: scrolled " + direction
}

func (h *linuxHands) Speak(text string) string { return h.voice.Speak(text) }

func (h *linuxHands) StopSpeaking() string { return h.voice.StopSpeaking() }

func (h *linuxHands) Close() { h.voice.Close() }
