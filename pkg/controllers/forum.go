package controllers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/llm"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/sanitize"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Forum handles draft_forum_reply and draft_forum_post. Replies
// additionally dedupe by post id: a reply already queued for a post is
// never re-drafted or re-enqueued, even if the scheduler proposes it
// again on a later tick.
type Forum struct {
	ArtifactsDir string
	LLM          llm.LLM
	Locker       queue.Locker
	Ledger       *ledger.Ledger
}

func (c Forum) Execute(ctx context.Context, intent types.Intent) types.ExecutionResult {
	draftsDir := filepath.Join(c.ArtifactsDir, "forum", "drafts")
	if err := os.MkdirAll(draftsDir, 0o755); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	switch intent.Type {
	case "draft_forum_reply":
		return c.draftReply(ctx, intent, draftsDir)
	case "draft_forum_post":
		return c.draftPost(ctx, intent, draftsDir)
	default:
		return skip("unsupported_intent")
	}
}

func (c Forum) draftReply(ctx context.Context, intent types.Intent, draftsDir string) types.ExecutionResult {
	postID := sanitize.Text(payloadString(intent.Payload, "post_id"), 200)
	title := sanitize.Text(payloadString(intent.Payload, "title"), 200)
	content := sanitize.Text(payloadString(intent.Payload, "content"), 4000)

	queuePath := filepath.Join(c.ArtifactsDir, "forum", "post_queue.json")
	qid := "forum_reply_" + safeID(postID)

	existing, err := queue.Load(queuePath)
	if err != nil {
		if res, ok := asReadFailure(c.Ledger, queuePath, err); ok {
			return res
		}
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}
	for _, it := range existing {
		if it.Qid == qid {
			return types.ExecutionResult{Status: types.ExecutionOK, Artifacts: []string{queuePath}, Note: "draft_exists_skip_enqueue"}
		}
	}

	var draft string
	if c.LLM != nil {
		resp, err := c.LLM.Complete(ctx, llm.SystemForumReply(), llm.UserForumReply(title, content), false)
		if err == nil {
			draft = resp.Text
		}
	}

	path := filepath.Join(draftsDir, "reply_"+safeID(postID)+".md")
	body := fmt.Sprintf("# Forum Reply Draft\n\nPost: %s\n\nContext:\n%s\n\n---\n\nDraft:\n\n%s\n", title, content, draft)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	spec := queue.ReplyPostSpec{Qid: qid, PostID: postID, BodyMDPath: path}
	hash, err := spec.Hash()
	if err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}
	specMap := spec.AsMap()
	specMap["title"] = title

	err = queue.WithLock(ctx, c.Locker, queuePath, func(items []queue.Item) ([]queue.Item, error) {
		for _, it := range items {
			if it.Qid == qid {
				return items, nil
			}
		}
		return append(items, queue.Item{
			Qid:      qid,
			Action:   queue.ActionReplyPost,
			Spec:     specMap,
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
		Note:      "reply_draft_created_and_enqueued",
	}
}

func (c Forum) draftPost(ctx context.Context, intent types.Intent, draftsDir string) types.ExecutionResult {
	title := sanitize.Text(payloadString(intent.Payload, "title"), 200)
	bodyContext := sanitize.Text(payloadString(intent.Payload, "context"), 4000)

	var draft string
	if c.LLM != nil {
		resp, err := c.LLM.Complete(ctx, llm.SystemForumPost(), llm.UserForumPost(title, bodyContext), false)
		if err == nil {
			draft = resp.Text
		}
	}

	path := filepath.Join(draftsDir, "post_"+uuid.New().String()+".md")
	body := fmt.Sprintf("# Forum Post Draft\n\nTitle: %s\n\nContext:\n%s\n\n---\n\nDraft:\n\n%s\n", title, bodyContext, draft)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	queuePath := filepath.Join(c.ArtifactsDir, "forum", "post_queue.json")
	qid := "forum_post_" + uuid.New().String()

	spec := queue.CreatePostSpec{Qid: qid, Title: title, BodyMDPath: path}
	hash, err := spec.Hash()
	if err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	err = queue.WithLock(ctx, c.Locker, queuePath, func(items []queue.Item) ([]queue.Item, error) {
		return append(items, queue.Item{
			Qid:      qid,
			Action:   queue.ActionCreatePost,
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
		Note:      "post_draft_created_and_enqueued",
	}
}

// safeID strips post ids down to the alnum/-/_ characters a filename and
// a qid can safely carry, falling back to a random id for an empty or
// fully-stripped input.
func safeID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	if out == "" {
		return uuid.New().String()
	}
	return out
}
