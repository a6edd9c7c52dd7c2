package controllers

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"

	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/llm"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/sanitize"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Messages turns a draft_reply intent into a draft markdown file and a
// pending send_email queue item.
type Messages struct {
	ArtifactsDir string
	LLM          llm.LLM
	Locker       queue.Locker
	Ledger       *ledger.Ledger
}

func (c Messages) Execute(ctx context.Context, intent types.Intent) types.ExecutionResult {
	if intent.Type != "draft_reply" {
		return skip("unsupported_intent")
	}

	draftsDir := filepath.Join(c.ArtifactsDir, "messages", "drafts")
	if err := os.MkdirAll(draftsDir, 0o755); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	tid := payloadString(intent.Payload, "thread_id")
	if tid == "" {
		tid = "unknown"
	}
	subj := sanitize.Text(payloadString(intent.Payload, "subject"), 200)
	snip := sanitize.Text(payloadString(intent.Payload, "snippet"), 2000)

	var draft string
	if c.LLM != nil {
		resp, err := c.LLM.Complete(ctx, llm.SystemDraftEmail(), llm.UserDraftEmail(subj, snip), false)
		if err == nil {
			draft = resp.Text
		}
	}

	path := filepath.Join(draftsDir, tid+".md")
	body := fmt.Sprintf("# Draft reply\n\nSubject: %s\n\nContext:\n%s\n\n---\n\nDraft:\n\n%s\n", subj, snip, draft)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	// The reply-to address is parsed best-effort from the inbound
	// From: header; an unparseable or absent header yields an empty
	// to-address rather than failing the controller (spec.md §4.5).
	toAddr := ""
	if from := payloadString(intent.Payload, "from"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			toAddr = addr.Address
		}
	}

	queuePath := filepath.Join(c.ArtifactsDir, "messages", "send_queue.json")
	qid := "send_" + tid

	var replyTo *string
	if mid := payloadString(intent.Payload, "message_id"); mid != "" {
		replyTo = &mid
	}

	spec := queue.SendEmailSpec{
		Qid:              qid,
		ThreadID:         tid,
		To:               toAddr,
		Subject:          subj,
		BodyMDPath:       path,
		ReplyToMessageID: replyTo,
	}
	hash, err := spec.Hash()
	if err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	err = queue.WithLock(ctx, c.Locker, queuePath, func(items []queue.Item) ([]queue.Item, error) {
		return append(items, queue.Item{
			Qid:      qid,
			Action:   queue.ActionSendEmail,
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
		Artifacts: []string{path, queuePath},
		Note:      "draft_created_and_enqueued",
	}
}
