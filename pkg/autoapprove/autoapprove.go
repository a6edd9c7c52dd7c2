// Package autoapprove implements the engine described in spec.md §4.9:
// at the end of every tick, scan the send and calendar queues for
// untokened pending items, evaluate the conservative policy, and mint
// approval tokens for the ones that qualify.
package autoapprove

import (
	"context"
	"errors"
	"time"

	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/policy"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/tokens"
)

// Engine auto-approves pending send-email and create-event queue items.
type Engine struct {
	policy  *policy.Engine
	ledger  *ledger.Ledger
	secret  []byte
	params  policy.Params
	ttl     time.Duration
	locker  queue.Locker
}

// New builds an Engine. secret must be non-empty; callers are expected to
// have already checked config.Config.AutoApproveEnabled before calling in,
// per spec.md §5 ("An empty secret must... disable auto-approval").
func New(policyEngine *policy.Engine, l *ledger.Ledger, locker queue.Locker, secret []byte, params policy.Params, ttl time.Duration) *Engine {
	return &Engine{policy: policyEngine, ledger: l, locker: locker, secret: secret, params: params, ttl: ttl}
}

// RunSendQueue evaluates every pending, untokened item in the send-email
// queue at path, minting tokens for the ones the policy approves.
func (e *Engine) RunSendQueue(ctx context.Context, path string) error {
	err := queue.WithLock(ctx, e.locker, path, func(items []queue.Item) ([]queue.Item, error) {
		for i := range items {
			it := &items[i]
			if it.Status != queue.StatusPending || it.ApprovalToken != nil {
				continue
			}
			spec, err := queue.DecodeSendEmailSpec(it.Spec)
			if err != nil {
				continue // drop this item from consideration, no state change
			}
			if err := e.stampHash(it, spec); err != nil {
				continue
			}

			allow, err := e.policy.AllowSendEmail(spec, e.params)
			if err != nil || !allow {
				continue
			}
			_ = e.approve(it, "send_email")
		}
		return items, nil
	})
	return e.logReadError(path, err)
}

// RunCalendarQueue is RunSendQueue's counterpart for create-event items.
func (e *Engine) RunCalendarQueue(ctx context.Context, path string) error {
	now := time.Now()
	err := queue.WithLock(ctx, e.locker, path, func(items []queue.Item) ([]queue.Item, error) {
		for i := range items {
			it := &items[i]
			if it.Status != queue.StatusPending || it.ApprovalToken != nil {
				continue
			}
			spec, err := queue.DecodeCreateEventSpec(it.Spec)
			if err != nil {
				continue
			}
			if err := e.stampHashEvent(it, spec); err != nil {
				continue
			}

			allow, err := e.policy.AllowCreateEvent(spec, e.params, now)
			if err != nil || !allow {
				continue
			}
			if err := e.approve(it, "create_event"); err != nil {
				continue
			}
		}
		return items, nil
	})
	return e.logReadError(path, err)
}

// logReadError records a genuine queue read failure to the ledger and
// swallows it: per spec.md §7, an unreadable queue is treated as empty
// for this tick rather than aborting auto-approval, and WithLock never
// reached fn or Write, so the file itself is untouched. Any other
// WithLock failure (lock contention, mutate, write) is returned as-is.
func (e *Engine) logReadError(path string, err error) error {
	var readErr *queue.ReadError
	if !errors.As(err, &readErr) {
		return err
	}
	if e.ledger != nil {
		_ = e.ledger.Append(ledger.KindQueueReadError, map[string]any{"path": path, "error": readErr.Error()})
	}
	return nil
}

func (e *Engine) stampHash(it *queue.Item, spec queue.SendEmailSpec) error {
	if it.SpecHash != "" {
		return nil
	}
	hash, err := spec.Hash()
	if err != nil {
		return err
	}
	it.SpecHash = hash
	return nil
}

func (e *Engine) stampHashEvent(it *queue.Item, spec queue.CreateEventSpec) error {
	if it.SpecHash != "" {
		return nil
	}
	hash, err := spec.Hash()
	if err != nil {
		return err
	}
	it.SpecHash = hash
	return nil
}

func (e *Engine) approve(it *queue.Item, tokenType string) error {
	bind := map[string]string{"qid": it.Qid, "spec_hash": it.SpecHash}
	tok, err := tokens.Mint(e.secret, tokenType, e.ttl, bind)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	it.ApprovalToken = &tok
	approvedBy := queue.ApprovedByAuto
	it.ApprovedBy = &approvedBy
	it.ApprovedAt = &now

	if e.ledger != nil {
		_ = e.ledger.Append("auto_approve", map[string]any{
			"qid":        it.Qid,
			"token_type": tokenType,
			"spec_hash":  it.SpecHash,
		})
	}
	return nil
}
