//go:build property
// +build property

package autoapprove_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/companion/pkg/autoapprove"
	"github.com/Mindburn-Labs/companion/pkg/policy"
	"github.com/Mindburn-Labs/companion/pkg/queue"
)

// Property 4 from spec.md §8: running auto-approve twice on the same
// queue file produces the same file bytes. The engine mints a token only
// for an item whose ApprovalToken is still nil, so a second run over an
// already-tokenized item is a byte-for-byte no-op regardless of whether
// the first run approved it.
func TestRunSendQueue_IdempotentAcrossRuns(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("a second run never changes the file bytes a first run produced", prop.ForAll(
		func(qid, to, subject string) bool {
			if qid == "" {
				return true
			}

			pol, err := policy.New()
			if err != nil {
				return false
			}
			params := policy.Params{
				Policy: "conservative", SelfEmail: "me@example.com",
				AutoCalendarID: "primary", EventWindowDays: 7,
				EventMaxDurationMin: 120, EventStartHour: 0, EventEndHour: 23,
			}
			e := autoapprove.New(pol, nil, queue.NewInProcessLocker(), []byte("secret"), params, time.Minute)

			dir := t.TempDir()
			body := filepath.Join(dir, "body.md")
			if err := os.WriteFile(body, []byte("hi"), 0o644); err != nil {
				return false
			}

			spec := queue.SendEmailSpec{Qid: qid, To: to, Subject: subject, BodyMDPath: body}
			path := filepath.Join(dir, "send_queue.json")
			if err := queue.Write(path, []queue.Item{
				{Qid: qid, Action: queue.ActionSendEmail, Spec: spec.AsMap(), Status: queue.StatusPending},
			}); err != nil {
				return false
			}

			ctx := context.Background()
			if err := e.RunSendQueue(ctx, path); err != nil {
				return false
			}
			afterFirst, err := os.ReadFile(path)
			if err != nil {
				return false
			}

			if err := e.RunSendQueue(ctx, path); err != nil {
				return false
			}
			afterSecond, err := os.ReadFile(path)
			if err != nil {
				return false
			}

			return string(afterFirst) == string(afterSecond)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
