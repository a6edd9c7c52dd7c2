package schedulers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/companion/pkg/llm"
	"github.com/Mindburn-Labs/companion/pkg/sanitize"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Messages proposes draft_reply intents from inbox threads, optionally
// driven by an LLM with a strict-schema fallback to a heuristic.
type Messages struct {
	State InboxState
	LLM   llm.LLM
}

// Propose returns up to maxIntentsPerTick candidate intents.
func (m Messages) Propose(ctx context.Context) []types.Intent {
	if m.LLM == nil {
		return m.heuristic()
	}

	threads := m.State.Threads
	if len(threads) > 20 {
		threads = threads[:20]
	}
	safe := make([]map[string]any, 0, len(threads))
	for _, th := range threads {
		safe = append(safe, map[string]any{
			"thread_id":  th.ThreadID,
			"message_id": th.MessageID,
			"from":       sanitize.Text(th.From, 200),
			"subject":    sanitize.Text(th.Subject, 200),
			"snippet":    sanitize.Text(th.Snippet, 800),
			"unread":     th.Unread,
			"important":  th.Important,
		})
	}
	threadsJSON, err := json.Marshal(safe)
	if err != nil {
		return m.heuristic()
	}

	resp, err := m.LLM.Complete(ctx, llm.SystemMessagesScheduler(), llm.UserMessagesScheduler(string(threadsJSON)), true)
	if err != nil || resp.JSON == nil {
		return m.heuristic()
	}
	if err := llm.ValidateIntentBatch(resp.JSON); err != nil {
		return m.heuristic()
	}

	return m.fromBatch(resp.JSON)
}

func (m Messages) heuristic() []types.Intent {
	threads := m.State.Threads
	if len(threads) > maxIntentsPerTick {
		threads = threads[:maxIntentsPerTick]
	}

	intents := make([]types.Intent, 0, len(threads))
	for _, th := range threads {
		urgency := 0.4
		if th.Unread {
			urgency = 0.8
		}
		value := 0.4
		if th.Important {
			value = 0.7
		}
		intents = append(intents, types.Intent{
			ID:     uuid.NewString(),
			Domain: types.DomainMessages,
			Type:   "draft_reply",
			Payload: map[string]any{
				"thread_id":  th.ThreadID,
				"message_id": th.MessageID,
				"subject":    th.Subject,
				"snippet":    th.Snippet,
				"from":       th.From,
			},
			Value:         value,
			Urgency:       urgency,
			EffortSeconds: 60,
			Preconditions: []string{"has_inbox_data"},
		})
	}
	return intents
}

func (m Messages) fromBatch(doc map[string]any) []types.Intent {
	raw, ok := doc["intents"].([]any)
	if !ok {
		return m.heuristic()
	}

	intents := make([]types.Intent, 0, len(raw))
	for _, entry := range raw {
		if len(intents) >= maxIntentsPerTick {
			break
		}
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		domain, _ := obj["domain"].(string)
		typ, _ := obj["type"].(string)
		value, _ := obj["value"].(float64)
		urgency, _ := obj["urgency"].(float64)
		effort, _ := obj["effort_s"].(float64)
		payload, _ := obj["payload"].(map[string]any)
		if payload == nil {
			payload = map[string]any{}
		}

		intents = append(intents, types.Intent{
			ID:            uuid.NewString(),
			Domain:        types.Domain(domain),
			Type:          typ,
			Payload:       payload,
			Value:         value,
			Urgency:       urgency,
			EffortSeconds: int(effort),
			Preconditions: []string{"has_inbox_data"},
		})
	}
	if len(intents) == 0 {
		return m.heuristic()
	}
	return intents
}
