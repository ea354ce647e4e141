package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/semaphore"

	"umbrasol/internal/config"
	"umbrasol/internal/hands"
	"umbrasol/internal/internet"
	"umbrasol/internal/safety"
)

// dispatcher routes whitelisted tools onto hands operations. Every dispatch
// passes through the whitelist and the sensitive-pattern scrub, and runs
// under a bounded worker pool so blocking capabilities cannot pile up.
type dispatcher struct {
	hands hands.Hands
	net   *internet.Searcher
	sem   *semaphore.Weighted
}

func newDispatcher(cfg *config.Config, h hands.Hands, net *internet.Searcher) *dispatcher {
	return &dispatcher{
		hands: h,
		net:   net,
		sem:   semaphore.NewWeighted(int64(cfg.Execution.MaxConcurrentTasks)),
	}
}

// Dispatch executes one (tool, cmd) pair and returns its result string.
// Unknown tools come back "BLOCKED:"; a cmd matching a sensitive pattern is
// emptied before the tool runs.
func (d *dispatcher) Dispatch(ctx context.Context, tool, cmd string) string {
	if !safety.AllowedTool(tool) {
		return fmt.Sprintf("BLOCKED: tool %q not in whitelist", tool)
	}
	cmd = safety.Scrub(cmd)

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	defer d.sem.Release(1)

	switch tool {
	case "shell":
		return d.hands.ExecuteShell(ctx, cmd).Output
	case "ls":
		path := cmd
		if path == "" {
			path = "."
		}
		return d.hands.ListDir(ctx, path)
	case "physical":
		return d.hands.GetPhysicalState(ctx)
	case "existence":
		return d.hands.GetExistenceStats(ctx)
	case "stats":
		return d.hands.GetSystemStats(ctx)
	case "proc_list":
		return d.hands.GetProcessList(ctx)
	case "gpu":
		return d.hands.GetGpuStats(ctx)
	case "startup":
		return d.hands.GetStartupItems(ctx)
	case "power":
		return d.dispatchPower(ctx, cmd)
	case "service":
		return d.dispatchService(ctx, cmd)
	case "see_active":
		return d.hands.ReadActiveWindow(ctx)
	case "see_raw":
		return d.hands.OcrScreen(ctx)
	case "see_tree":
		return d.hands.ObserveUITree(ctx)
	case "gui_click":
		return d.dispatchClick(ctx, cmd)
	case "gui_type":
		return d.hands.GuiType(ctx, cmd)
	case "gui_scroll":
		return d.hands.GuiScroll(ctx, cmd)
	case "gui_speak":
		return d.hands.Speak(cmd)
	case "net":
		return d.net.SwiftSearch(ctx, cmd)
	}
	return fmt.Sprintf("BLOCKED: tool %q not found", tool)
}

// dispatchPower answers power state by default; "suspend PID" and
// "resume PID" signal the target process instead.
func (d *dispatcher) dispatchPower(ctx context.Context, cmd string) string {
	f := strings.Fields(cmd)
	if len(f) == 2 {
		pid, err := strconv.Atoi(f[1])
		if err != nil {
			return fmt.Sprintf("ERROR: invalid pid %q", f[1])
		}
		switch strings.ToLower(f[0]) {
		case "suspend":
			return d.hands.Suspend(ctx, pid)
		case "resume":
			return d.hands.Resume(ctx, pid)
		}
	}
	return d.hands.GetPhysicalState(ctx)
}

// dispatchService expects "name action", with the reserved name "network"
// routing to interface control as "network iface up|down".
func (d *dispatcher) dispatchService(ctx context.Context, cmd string) string {
	f := strings.Fields(cmd)
	switch {
	case len(f) == 3 && strings.EqualFold(f[0], "network"):
		return d.hands.ControlNetwork(ctx, f[1], f[2])
	case len(f) >= 2:
		return d.hands.ManageService(ctx, f[0], f[1])
	}
	return "ERROR: service needs 'name action'"
}

func (d *dispatcher) dispatchClick(ctx context.Context, cmd string) string {
	parts := strings.SplitN(cmd, ",", 2)
	if len(parts) != 2 {
		return "ERROR: gui_click needs coordinates 'x,y'"
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return "ERROR: gui_click needs coordinates 'x,y'"
	}
	return d.hands.GuiClick(ctx, x, y)
}
