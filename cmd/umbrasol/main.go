// Command umbrasol is the CLI entry point: one-shot requests, or a
// hands-free loop that reads transcript lines from stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"umbrasol/internal/brain"
	"umbrasol/internal/config"
	"umbrasol/internal/hands"
	"umbrasol/internal/internet"
	"umbrasol/internal/logging"
	"umbrasol/internal/orchestrator"
	"umbrasol/internal/soul"
	"umbrasol/internal/store"
)

var (
	talkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var voice bool

	cmd := &cobra.Command{
		Use:   "umbrasol [request]",
		Short: "Local always-on autonomous agent",
		Long: `Umbrasol turns natural-language requests into safe actions on this
machine. Decisions come from a local inference endpoint; actions run
through a whitelisted tool set behind a safety gate.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !voice && len(args) == 0 {
				return cmd.Usage()
			}
			return run(cmd.Context(), voice, strings.Join(args, " "))
		},
	}
	cmd.Flags().BoolVar(&voice, "voice", false, "hands-free loop reading transcripts from stdin")
	return cmd
}

func run(ctx context.Context, voiceMode bool, request string) error {
	cfg, err := config.Load("umbrasol.yaml")
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.LogFile(), cfg.Logging.Level, cfg.Logging.Console); err != nil {
		return err
	}
	defer logging.Sync()

	if err := orchestrator.AcquireLock(cfg.LockFile()); err != nil {
		return err
	}
	defer orchestrator.ReleaseLock(cfg.LockFile())

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	h := hands.New(cfg)
	defer h.Close()

	o := orchestrator.New(cfg, st, h,
		soul.New(brain.NewClient(cfg), cfg.Name),
		internet.NewSearcher(cfg), voiceMode)
	o.OnTalk = func(s string) { fmt.Print(talkStyle.Render(s)) }
	o.OnResult = func(s string) {
		fmt.Println()
		fmt.Println(resultStyle.Render("[output] " + s))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The first signal discards queued speech and stops accepting new
	// requests; in-flight actions are allowed to finish. A second signal
	// cancels them too.
	quit := make(chan struct{})
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logging.Infof("main: shutdown requested, finishing in-flight work")
		h.StopSpeaking()
		close(quit)
		<-sigCh
		cancel()
	}()

	go o.RunHealthMonitor(ctx)

	if err := o.ResumePending(ctx); err != nil {
		logging.Warnf("main: recovery: %v", err)
	}

	if voiceMode {
		fmt.Println(bannerStyle.Render("umbrasol listening. one request per line, ctrl-d to exit."))
		return voiceLoop(ctx, quit, os.Stdin, o.Execute)
	}

	if _, err := o.Execute(ctx, request); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// voiceLoop treats each transcript line as one recognized utterance. The
// speech recognizer is an external collaborator; its transcript stream
// stands in here as standard input. A closed quit channel ends the loop
// before the next request without interrupting the current one.
func voiceLoop(ctx context.Context, quit <-chan struct{}, in io.Reader, execute func(context.Context, string) (string, error)) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := execute(ctx, line); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		}
		fmt.Println()
	}
	return scanner.Err()
}
