// Package orchestrator composes the per-tick pipeline described in
// spec.md's data flow: read domain state, propose intents, gate each one,
// arbitrate to one winner among the admitted intents, execute it, and
// record every step to the ledger
// before auto-approving whatever the tick's controller enqueued.
package orchestrator

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mindburn-Labs/companion/pkg/arbiter"
	"github.com/Mindburn-Labs/companion/pkg/autoapprove"
	"github.com/Mindburn-Labs/companion/pkg/controllers"
	"github.com/Mindburn-Labs/companion/pkg/gate"
	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/llm"
	"github.com/Mindburn-Labs/companion/pkg/observability"
	"github.com/Mindburn-Labs/companion/pkg/schedulers"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// InboxReader fetches the current inbox state. A nil InboxReader is
// treated as an always-empty inbox, matching main.py's behavior when
// --use_google is not passed.
type InboxReader interface {
	Read(ctx context.Context) (schedulers.InboxState, error)
}

// CalendarReader fetches the current calendar state.
type CalendarReader interface {
	Read(ctx context.Context) (schedulers.CalendarState, error)
}

// ForumFeedReader fetches the current forum feed state. A read error is
// swallowed to an empty feed, matching the original's
// try/except-to-empty-state fallback around its HTTP forum reader.
type ForumFeedReader interface {
	Read(ctx context.Context) (schedulers.FeedState, error)
}

// Readers bundles the optional domain-state collaborators. Each field
// may be left nil to always supply an empty state for that domain.
type Readers struct {
	Inbox    InboxReader
	Calendar CalendarReader
	Forum    ForumFeedReader
}

// Paths bundles the per-domain queue file locations under the artifacts
// root.
type Paths struct {
	ArtifactsDir string
	SendQueue    string
	EventQueue   string
}

// Orchestrator runs the tick loop.
type Orchestrator struct {
	readers Readers
	paths   Paths
	repos   []string
	llm     llm.LLM

	gate   *gate.Gate
	arb    *arbiter.Global
	ledger *ledger.Ledger
	obs    *observability.Provider
	log    *slog.Logger

	messages controllers.Messages
	calendar controllers.Calendar
	coding   controllers.Coding
	forum    controllers.Forum

	autoApprove        *autoapprove.Engine
	autoApproveEnabled bool
}

// New builds an Orchestrator. llmClient may be nil, in which case every
// scheduler that can use one falls back to its heuristic path.
func New(
	readers Readers,
	paths Paths,
	repos []string,
	llmClient llm.LLM,
	l *ledger.Ledger,
	obs *observability.Provider,
	logger *slog.Logger,
	messages controllers.Messages,
	calendar controllers.Calendar,
	coding controllers.Coding,
	forum controllers.Forum,
	autoApprove *autoapprove.Engine,
	autoApproveEnabled bool,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		readers:            readers,
		paths:              paths,
		repos:              repos,
		llm:                llmClient,
		gate:               gate.New(),
		arb:                arbiter.New(),
		ledger:             l,
		obs:                obs,
		log:                logger,
		messages:           messages,
		calendar:           calendar,
		coding:             coding,
		forum:              forum,
		autoApprove:        autoApprove,
		autoApproveEnabled: autoApproveEnabled,
	}
}

// Tick runs one iteration of the pipeline, numbered n for ledger/trace
// correlation.
func (o *Orchestrator) Tick(ctx context.Context, n int) error {
	ctx, span := o.obs.StartSpan(ctx, "orchestrator.tick", trace.WithAttributes(attribute.Int("companion.tick", n)))
	defer span.End()

	inbox := o.readInbox(ctx)
	calState := o.readCalendar(ctx)
	feed := o.readForum(ctx)
	repoState := schedulers.RepoState{Repos: o.repos}

	var intents []types.Intent
	intents = append(intents, schedulers.Messages{State: inbox, LLM: o.llm}.Propose(ctx)...)
	intents = append(intents, schedulers.Calendar{State: calState}.Propose()...)
	intents = append(intents, schedulers.Coding{State: repoState}.Propose()...)
	intents = append(intents, schedulers.Forum{State: feed}.Propose()...)

	var admitted []types.Intent
	for _, it := range intents {
		dec := o.gate.Decide(it)
		_ = o.ledger.Append(ledger.KindDecision, map[string]any{
			"tick": n, "accepted": dec.Accepted, "reason": dec.Reason, "intent": it,
		})
		if dec.Accepted {
			admitted = append(admitted, it)
		}
	}

	chosen, ok := o.arb.Choose(admitted)
	if !ok {
		_ = o.ledger.Append(ledger.KindTick, map[string]any{"tick": n, "note": "no_intents"})
		o.runAutoApprove(ctx)
		return nil
	}

	res := o.execute(ctx, chosen)
	_ = o.ledger.Append(ledger.KindExec, map[string]any{
		"tick": n, "status": res.Status, "note": res.Note, "artifacts": res.Artifacts,
	})
	if res.Status == types.ExecutionFail {
		span.SetStatus(codes.Error, res.Note)
	}

	o.runAutoApprove(ctx)
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, intent types.Intent) types.ExecutionResult {
	switch intent.Domain {
	case types.DomainMessages:
		return o.messages.Execute(ctx, intent)
	case types.DomainCalendar:
		return o.calendar.Execute(ctx, intent)
	case types.DomainForum:
		return o.forum.Execute(ctx, intent)
	default:
		return o.coding.Execute(ctx, intent)
	}
}

func (o *Orchestrator) runAutoApprove(ctx context.Context) {
	if !o.autoApproveEnabled || o.autoApprove == nil {
		return
	}
	if err := o.autoApprove.RunSendQueue(ctx, o.paths.SendQueue); err != nil {
		o.log.ErrorContext(ctx, "auto-approve send queue failed", "error", err)
	}
	if err := o.autoApprove.RunCalendarQueue(ctx, o.paths.EventQueue); err != nil {
		o.log.ErrorContext(ctx, "auto-approve calendar queue failed", "error", err)
	}
}

func (o *Orchestrator) readInbox(ctx context.Context) schedulers.InboxState {
	if o.readers.Inbox == nil {
		return schedulers.InboxState{}
	}
	state, err := o.readers.Inbox.Read(ctx)
	if err != nil {
		o.log.WarnContext(ctx, "inbox read failed, using empty state", "error", err)
		return schedulers.InboxState{}
	}
	return state
}

func (o *Orchestrator) readCalendar(ctx context.Context) schedulers.CalendarState {
	if o.readers.Calendar == nil {
		return schedulers.CalendarState{}
	}
	state, err := o.readers.Calendar.Read(ctx)
	if err != nil {
		o.log.WarnContext(ctx, "calendar read failed, using empty state", "error", err)
		return schedulers.CalendarState{}
	}
	return state
}

func (o *Orchestrator) readForum(ctx context.Context) schedulers.FeedState {
	if o.readers.Forum == nil {
		return schedulers.FeedState{}
	}
	state, err := o.readers.Forum.Read(ctx)
	if err != nil {
		o.log.WarnContext(ctx, "forum feed read failed, using empty state", "error", err)
		return schedulers.FeedState{}
	}
	return state
}
