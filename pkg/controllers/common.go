// Package controllers turns an admitted intent into a draft artifact and,
// for domains with an external effect, a pending queue item awaiting
// approval. Controllers never call an external API directly — that is
// the executor daemon's job once a queue item is approved.
package controllers

import (
	"errors"

	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

func payloadString(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func payloadStringSlice(p map[string]any, key string) []string {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func skip(note string) types.ExecutionResult {
	return types.ExecutionResult{Status: types.ExecutionSkipped, Note: note}
}

// asReadFailure reports whether err is a queue.ReadError (a genuine
// queue-file read failure, as opposed to a lock, mutate, or write
// failure from queue.WithLock). When it is, the failure is logged to l
// under ledger.KindQueueReadError with the file path, per spec.md §7,
// and the terminal result callers should return for it.
func asReadFailure(l *ledger.Ledger, path string, err error) (types.ExecutionResult, bool) {
	var readErr *queue.ReadError
	if !errors.As(err, &readErr) {
		return types.ExecutionResult{}, false
	}
	if l != nil {
		_ = l.Append(ledger.KindQueueReadError, map[string]any{"path": path, "error": readErr.Error()})
	}
	return types.ExecutionResult{Status: types.ExecutionFail, Note: "queue_read_error"}, true
}
