// Package executor implements the independent polling daemon of
// spec.md §4.10: verify tokens, dispatch to the external writer, and
// move each queue item to a terminal state exactly once.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Mindburn-Labs/companion/pkg/dedupe"
	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/tokens"
)

// writerTimeout bounds every external writer call (spec.md §5: "≤30 s
// for HTTP writers").
const writerTimeout = 30 * time.Second

// PollInterval is the recommended fixed interval between iterations
// (spec.md §4.10: "~500 ms").
const PollInterval = 500 * time.Millisecond

const maxErrorNoteLen = 300

// Reason codes for terminal rejections.
const (
	ReasonInvalidOrExpiredToken = "invalid_or_expired_token"
	ReasonTokenBindMismatch     = "token_bind_mismatch"
)

// expectedTokenType maps a queue action to the token_type its approval
// token must carry. The forum actions use a distinct token type from
// their action tag (companion_exec/daemon.py's
// "moltbook_post"/"moltbook_reply" check), so this is not always
// string(action).
func expectedTokenType(action queue.Action) string {
	switch action {
	case queue.ActionCreatePost:
		return "forum_post"
	case queue.ActionReplyPost:
		return "forum_reply"
	default:
		return string(action)
	}
}

// Executor polls the send, calendar, and forum queues on an interval,
// verifying approval tokens and dispatching admitted items to the
// configured Writers.
type Executor struct {
	Paths   Paths
	Writers Writers
	Secret  []byte

	dedupe *dedupe.Store
	ledger *ledger.Ledger
	locker queue.Locker
	log    *slog.Logger
	now    func() time.Time
}

// Paths bundles the three queue file locations and the dedupe store
// location.
type Paths struct {
	SendQueue       string
	EventQueue      string
	ForumQueue      string
	DedupeStorePath string
}

// New builds an Executor. secret must be non-empty: an empty secret
// aborts startup per spec.md §5 ("An empty secret must abort the
// executor startup and disable auto-approval").
func New(paths Paths, writers Writers, secret []byte, l *ledger.Ledger, locker queue.Locker, logger *slog.Logger) (*Executor, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("executor: empty secret, refusing to start")
	}
	store, err := dedupe.Open(paths.DedupeStorePath)
	if err != nil {
		return nil, fmt.Errorf("executor: open dedupe store: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Paths:   paths,
		Writers: writers,
		Secret:  secret,
		dedupe:  store,
		ledger:  l,
		locker:  locker,
		log:     logger,
		now:     time.Now,
	}, nil
}

// Run polls forever at PollInterval until ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		if err := e.PollOnce(ctx); err != nil {
			e.log.ErrorContext(ctx, "poll iteration failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce runs a single iteration across all three queues.
func (e *Executor) PollOnce(ctx context.Context) error {
	e.pollQueue(ctx, e.Paths.SendQueue, queue.ActionSendEmail)
	e.pollQueue(ctx, e.Paths.EventQueue, queue.ActionCreateEvent)
	e.pollQueue(ctx, e.Paths.ForumQueue, "") // forum queue mixes create_post and reply_post
	return nil
}

// mutation is the terminal outcome to apply to one qid once the queue is
// re-read under lock, per spec.md §5's reload-and-merge-by-qid rule.
type mutation struct {
	status queue.Status
	reason string
}

func (e *Executor) pollQueue(ctx context.Context, path string, expectedAction queue.Action) {
	items, err := queue.Load(path)
	if err != nil {
		_ = e.ledger.Append(ledger.KindQueueReadError, map[string]any{"path": path, "error": err.Error()})
		return
	}

	mutations := make(map[string]mutation)
	for _, it := range items {
		if it.Status != queue.StatusPending {
			continue
		}
		if _, seen := e.dedupe.Seen(it.Qid); seen {
			continue
		}
		if it.ApprovalToken == nil {
			continue
		}
		action := it.Action
		if expectedAction != "" && action != expectedAction {
			continue
		}
		m := e.resolve(ctx, it, action)
		mutations[it.Qid] = m
	}

	if len(mutations) == 0 {
		return
	}

	err = queue.WithLock(ctx, e.locker, path, func(fresh []queue.Item) ([]queue.Item, error) {
		for i := range fresh {
			m, ok := mutations[fresh[i].Qid]
			if !ok || fresh[i].Status != queue.StatusPending {
				continue
			}
			fresh[i].Status = m.status
			fresh[i].Reason = m.reason
		}
		return fresh, nil
	})
	if err != nil {
		e.log.ErrorContext(ctx, "queue rewrite failed", "path", path, "error", err)
		return
	}

	for qid, m := range mutations {
		if err := e.dedupe.Record(qid, string(m.status)); err != nil {
			e.log.ErrorContext(ctx, "dedupe persist failed", "qid", qid, "error", err)
		}
	}
}

// resolve verifies it's token and, if valid, dispatches to the writer.
// It never mutates it itself; the caller applies the returned mutation
// to a freshly reloaded copy of the queue.
func (e *Executor) resolve(ctx context.Context, it queue.Item, action queue.Action) mutation {
	approval, err := tokens.Verify(e.Secret, *it.ApprovalToken)
	if err != nil || e.now().After(approval.ExpiresAt()) || approval.TokenType != expectedTokenType(action) {
		e.appendExecReject(it, ReasonInvalidOrExpiredToken)
		return mutation{status: queue.StatusRejected, reason: ReasonInvalidOrExpiredToken}
	}
	if approval.Bind["qid"] != it.Qid || approval.Bind["spec_hash"] != it.SpecHash {
		e.appendExecReject(it, ReasonTokenBindMismatch)
		return mutation{status: queue.StatusRejected, reason: ReasonTokenBindMismatch}
	}

	writeCtx, cancel := context.WithTimeout(ctx, writerTimeout)
	defer cancel()

	if err := e.dispatch(writeCtx, it, action); err != nil {
		note := truncate(err.Error(), maxErrorNoteLen)
		_ = e.ledger.Append(ledger.KindExecError, map[string]any{"qid": it.Qid, "action": string(action), "error": note})
		return mutation{status: queue.StatusError, reason: note}
	}

	_ = e.ledger.Append(ledger.KindExecOK, map[string]any{"qid": it.Qid, "action": string(action)})
	return mutation{status: queue.StatusDone}
}

func (e *Executor) appendExecReject(it queue.Item, reason string) {
	_ = e.ledger.Append(ledger.KindExecReject, map[string]any{"qid": it.Qid, "action": string(it.Action), "reason": reason})
}

func (e *Executor) dispatch(ctx context.Context, it queue.Item, action queue.Action) error {
	switch action {
	case queue.ActionSendEmail:
		spec, err := queue.DecodeSendEmailSpec(it.Spec)
		if err != nil {
			return err
		}
		if spec.To == "" {
			return fmt.Errorf("executor: send_email spec has empty to")
		}
		if e.Writers.Email == nil {
			return fmt.Errorf("executor: no email writer configured")
		}
		body, err := os.ReadFile(spec.BodyMDPath)
		if err != nil {
			return fmt.Errorf("executor: read body file: %w", err)
		}
		return e.Writers.Email.SendEmail(ctx, spec.To, spec.Subject, string(body))

	case queue.ActionCreateEvent:
		spec, err := queue.DecodeCreateEventSpec(it.Spec)
		if err != nil {
			return err
		}
		if e.Writers.Calendar == nil {
			return fmt.Errorf("executor: no calendar writer configured")
		}
		desc, err := os.ReadFile(spec.DescriptionMDPath)
		if err != nil {
			return fmt.Errorf("executor: read description file: %w", err)
		}
		return e.Writers.Calendar.CreateEvent(ctx, spec.CalendarID, spec.Title, spec.StartISO, spec.EndISO, string(desc), spec.Attendees)

	case queue.ActionCreatePost:
		spec, err := queue.DecodeCreatePostSpec(it.Spec)
		if err != nil {
			return err
		}
		if e.Writers.Forum == nil {
			return fmt.Errorf("executor: no forum writer configured")
		}
		body, err := os.ReadFile(spec.BodyMDPath)
		if err != nil {
			return fmt.Errorf("executor: read body file: %w", err)
		}
		return e.Writers.Forum.CreatePost(ctx, spec.Title, string(body))

	case queue.ActionReplyPost:
		spec, err := queue.DecodeReplyPostSpec(it.Spec)
		if err != nil {
			return err
		}
		if e.Writers.Forum == nil {
			return fmt.Errorf("executor: no forum writer configured")
		}
		body, err := os.ReadFile(spec.BodyMDPath)
		if err != nil {
			return fmt.Errorf("executor: read body file: %w", err)
		}
		return e.Writers.Forum.ReplyPost(ctx, spec.PostID, string(body))

	default:
		return fmt.Errorf("executor: unknown action %q", action)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
