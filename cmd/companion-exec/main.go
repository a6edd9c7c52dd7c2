// Command companion-exec runs the executor daemon: it polls the send,
// calendar, and forum queues, verifies approval tokens, and dispatches
// admitted items to the configured external writers (spec.md §4.10).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Mindburn-Labs/companion/pkg/config"
	"github.com/Mindburn-Labs/companion/pkg/executor"
	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/writers"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if cfg.ExecSecret == "" {
		fmt.Fprintln(os.Stderr, "COMPANION_EXEC_SECRET is empty; refusing to start the executor")
		return 1
	}

	logger := slog.Default()

	l, err := ledger.Open(filepath.Join(cfg.DataDir, "ledger.jsonl"), cfg.LedgerIndexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		return 1
	}
	defer l.Close()

	var locker queue.Locker
	if cfg.RedisAddr != "" {
		locker = queue.NewRedisLocker(cfg.RedisAddr, time.Duration(cfg.AutoApproveTTLS)*time.Second)
	} else {
		locker = queue.NewInProcessLocker()
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	limiter := rate.NewLimiter(rate.Limit(cfg.LLMRatePerSec), cfg.LLMBurst)

	w := executor.Writers{
		Email:    writers.NewEmail(httpClient, limiter, cfg.EmailWebhookURL, cfg.WriterAuthToken),
		Calendar: writers.NewCalendar(httpClient, limiter, cfg.CalendarWebhookURL, cfg.WriterAuthToken),
		Forum:    writers.NewForum(httpClient, limiter, cfg.ForumBaseURL, cfg.WriterAuthToken),
	}

	paths := executor.Paths{
		SendQueue:       filepath.Join(cfg.DataDir, "messages", "send_queue.json"),
		EventQueue:      filepath.Join(cfg.DataDir, "calendar", "event_queue.json"),
		ForumQueue:      filepath.Join(cfg.DataDir, "forum", "post_queue.json"),
		DedupeStorePath: filepath.Join(cfg.DataDir, "executor_dedupe.json"),
	}

	e, err := executor.New(paths, w, []byte(cfg.ExecSecret), l, locker, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init executor: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("executor daemon starting", "interval", executor.PollInterval)
	if err := e.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "executor loop failed: %v\n", err)
		return 1
	}
	logger.Info("executor daemon shutting down")
	return 0
}
