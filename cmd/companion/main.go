// Command companion runs the orchestrator: the cooperative tick loop that
// reads domain state, proposes intents, gates them and arbitrates one winner
// per tick among the admitted ones, dispatches it to a controller, and auto-approves whatever landed in
// a queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Mindburn-Labs/companion/pkg/autoapprove"
	"github.com/Mindburn-Labs/companion/pkg/config"
	"github.com/Mindburn-Labs/companion/pkg/controllers"
	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/llm/router"
	"github.com/Mindburn-Labs/companion/pkg/observability"
	"github.com/Mindburn-Labs/companion/pkg/orchestrator"
	"github.com/Mindburn-Labs/companion/pkg/policy"
	"github.com/Mindburn-Labs/companion/pkg/queue"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the testable entrypoint: args mirrors os.Args.
func Run(args []string, stdout, stderr io.Writer) int {
	switch {
	case len(args) < 2:
		return runLoop(nil, stdout, stderr)
	case args[1] == "run", args[1] == "serve":
		return runLoop(args[2:], stdout, stderr)
	case args[1] == "tick":
		return runSingleTick(args[2:], stdout, stderr)
	case args[1] == "help", args[1] == "--help", args[1] == "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "companion - personal agent control-plane orchestrator")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "usage: companion <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  run   run the tick loop until interrupted (default)")
	fmt.Fprintln(w, "  tick  run exactly one tick and exit")
	fmt.Fprintln(w, "  help  show this help")
}

func runSingleTick(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("tick", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	o, closeFn, err := buildOrchestrator()
	if err != nil {
		fmt.Fprintf(stderr, "init failed: %v\n", err)
		return 1
	}
	defer closeFn()

	if err := o.Tick(context.Background(), 0); err != nil {
		fmt.Fprintf(stderr, "tick failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "tick complete")
	return 0
}

func runLoop(args []string, stdout, stderr io.Writer) int {
	var intervalS float64
	cmd := flag.NewFlagSet("run", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	cmd.Float64Var(&intervalS, "interval", 1.0, "seconds between ticks")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	o, closeFn, err := buildOrchestrator()
	if err != nil {
		fmt.Fprintf(stderr, "init failed: %v\n", err)
		return 1
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintln(stdout, "companion orchestrator starting")
	ticker := time.NewTicker(time.Duration(intervalS * float64(time.Second)))
	defer ticker.Stop()

	n := 0
	for {
		if err := o.Tick(ctx, n); err != nil {
			fmt.Fprintf(stderr, "tick %d failed: %v\n", n, err)
		}
		n++
		select {
		case <-ctx.Done():
			fmt.Fprintln(stdout, "companion orchestrator shutting down")
			return 0
		case <-ticker.C:
		}
	}
}

// buildOrchestrator wires every collaborator from config.Load, matching the
// original's main() composition: no domain-state readers are configured by
// default (an out-of-scope reader adapter per spec.md), so every tick scores
// an empty inbox/calendar/forum feed unless a future adapter is wired into
// orchestrator.Readers.
func buildOrchestrator() (*orchestrator.Orchestrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, func() {}, fmt.Errorf("load config: %w", err)
	}

	logger := slog.Default()

	l, err := ledger.Open(filepath.Join(cfg.DataDir, "ledger.jsonl"), cfg.LedgerIndexPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open ledger: %w", err)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	obsCfg.Enabled = cfg.OTLPEndpoint != ""
	obs, err := observability.New(context.Background(), obsCfg, logger)
	if err != nil {
		_ = l.Close()
		return nil, func() {}, fmt.Errorf("init observability: %w", err)
	}

	var locker queue.Locker
	if cfg.RedisAddr != "" {
		locker = queue.NewRedisLocker(cfg.RedisAddr, time.Duration(cfg.AutoApproveTTLS)*time.Second)
	} else {
		locker = queue.NewInProcessLocker()
	}

	llmClient := router.Build(cfg, router.Secrets{
		OpenAIAPIKey:    os.Getenv("COMPANION_OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("COMPANION_ANTHROPIC_API_KEY"),
	})

	paths := orchestrator.Paths{
		ArtifactsDir: cfg.DataDir,
		SendQueue:    filepath.Join(cfg.DataDir, "messages", "send_queue.json"),
		EventQueue:   filepath.Join(cfg.DataDir, "calendar", "event_queue.json"),
	}

	messages := controllers.Messages{ArtifactsDir: cfg.DataDir, LLM: llmClient, Locker: locker, Ledger: l}
	calendar := controllers.Calendar{ArtifactsDir: cfg.DataDir, Locker: locker, Ledger: l}
	coding := controllers.Coding{ArtifactsDir: cfg.DataDir}
	forum := controllers.Forum{ArtifactsDir: cfg.DataDir, LLM: llmClient, Locker: locker, Ledger: l}

	var autoApprove *autoapprove.Engine
	autoApproveEnabled := cfg.AutoApproveEnabled()
	if autoApproveEnabled {
		policyEngine, err := policy.New()
		if err != nil {
			_ = l.Close()
			return nil, func() {}, fmt.Errorf("init policy engine: %w", err)
		}
		params := policy.Params{
			Policy:              cfg.Policy,
			SelfEmail:           cfg.SelfEmail,
			AutoCalendarID:      cfg.AutoCalendarID,
			EventWindowDays:     cfg.EventWindowDays,
			EventMaxDurationMin: cfg.EventMaxDurationMin,
			EventStartHour:      cfg.EventStartHour,
			EventEndHour:        cfg.EventEndHour,
		}
		ttl := time.Duration(cfg.AutoApproveTTLS) * time.Second
		autoApprove = autoapprove.New(policyEngine, l, locker, []byte(cfg.ExecSecret), params, ttl)
	}

	o := orchestrator.New(
		orchestrator.Readers{},
		paths,
		cfg.CodeRepos,
		llmClient,
		l,
		obs,
		logger,
		messages,
		calendar,
		coding,
		forum,
		autoApprove,
		autoApproveEnabled,
	)

	closeFn := func() {
		_ = obs.Shutdown(context.Background())
		_ = l.Close()
	}
	return o, closeFn, nil
}
