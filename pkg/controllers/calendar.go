package controllers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/sanitize"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Calendar handles two intent types: agenda_draft, which only writes a
// draft artifact, and enqueue_event_draft, which additionally appends a
// pending create_event queue item.
type Calendar struct {
	ArtifactsDir string
	Locker       queue.Locker
	Ledger       *ledger.Ledger
}

func (c Calendar) Execute(ctx context.Context, intent types.Intent) types.ExecutionResult {
	draftsDir := filepath.Join(c.ArtifactsDir, "calendar", "drafts")
	if err := os.MkdirAll(draftsDir, 0o755); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	switch intent.Type {
	case "agenda_draft":
		return c.agendaDraft(intent, draftsDir)
	case "enqueue_event_draft":
		return c.enqueueEventDraft(ctx, intent, draftsDir)
	default:
		return skip("unsupported_intent")
	}
}

func (c Calendar) agendaDraft(intent types.Intent, draftsDir string) types.ExecutionResult {
	eid := payloadString(intent.Payload, "event_id")
	if eid == "" {
		eid = "unknown"
	}
	title := sanitize.Text(payloadString(intent.Payload, "title"), 200)
	when := sanitize.Text(payloadString(intent.Payload, "when"), 200)
	desc := sanitize.Text(payloadString(intent.Payload, "description"), 2000)

	path := filepath.Join(draftsDir, eid+"_agenda.md")
	body := fmt.Sprintf("# Agenda Draft\n\nEvent: %s\nWhen: %s\n\n%s\n", title, when, desc)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}
	return types.ExecutionResult{Status: types.ExecutionOK, Artifacts: []string{path}, Note: "agenda_draft_created"}
}

func (c Calendar) enqueueEventDraft(ctx context.Context, intent types.Intent, draftsDir string) types.ExecutionResult {
	calID := payloadString(intent.Payload, "calendar_id")
	if calID == "" {
		calID = "primary"
	}
	title := sanitize.Text(payloadString(intent.Payload, "title"), 200)
	startISO := payloadString(intent.Payload, "start_iso")
	endISO := payloadString(intent.Payload, "end_iso")
	attendees := payloadStringSlice(intent.Payload, "attendees")
	desc := sanitize.Text(payloadString(intent.Payload, "description"), 2000)

	descPath := filepath.Join(draftsDir, "event_"+uuid.New().String()+".md")
	if err := os.WriteFile(descPath, []byte(desc), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	queuePath := filepath.Join(c.ArtifactsDir, "calendar", "event_queue.json")
	qid := "create_event_" + uuid.New().String()

	spec := queue.CreateEventSpec{
		Qid:               qid,
		CalendarID:        calID,
		Title:             title,
		StartISO:          startISO,
		EndISO:            endISO,
		DescriptionMDPath: descPath,
		Attendees:         attendees,
	}
	hash, err := spec.Hash()
	if err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	err = queue.WithLock(ctx, c.Locker, queuePath, func(items []queue.Item) ([]queue.Item, error) {
		return append(items, queue.Item{
			Qid:      qid,
			Action:   queue.ActionCreateEvent,
			Spec:     spec.AsMap(),
			SpecHash: hash,
			Status:   queue.StatusPending,
		}), nil
	})
	if err != nil {
		if res, ok := asReadFailure(c.Ledger, queuePath, err); ok {
			return res
		}
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	return types.ExecutionResult{
		Status:    types.ExecutionOK,
		Artifacts: []string{descPath, queuePath},
		Note:      "event_enqueued",
	}
}
