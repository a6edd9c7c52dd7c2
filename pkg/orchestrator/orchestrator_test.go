package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/companion/pkg/controllers"
	"github.com/Mindburn-Labs/companion/pkg/ledger"
	"github.com/Mindburn-Labs/companion/pkg/observability"
	"github.com/Mindburn-Labs/companion/pkg/queue"
	"github.com/Mindburn-Labs/companion/pkg/schedulers"
)

type stubInboxReader struct {
	state schedulers.InboxState
	err   error
}

func (s stubInboxReader) Read(ctx context.Context) (schedulers.InboxState, error) {
	return s.state, s.err
}

func newTestOrchestrator(t *testing.T, readers Readers) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()

	l, err := ledger.Open(filepath.Join(dir, "ledger.jsonl"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	obs, err := observability.New(context.Background(), observability.DefaultConfig(), nil)
	require.NoError(t, err)

	locker := queue.NewInProcessLocker()
	o := New(
		readers,
		Paths{
			ArtifactsDir: dir,
			SendQueue:    filepath.Join(dir, "messages", "send_queue.json"),
			EventQueue:   filepath.Join(dir, "calendar", "event_queue.json"),
		},
		nil, // no repos configured
		nil, // no LLM configured
		l,
		obs,
		nil,
		controllers.Messages{ArtifactsDir: dir, Locker: locker},
		controllers.Calendar{ArtifactsDir: dir, Locker: locker},
		controllers.Coding{ArtifactsDir: dir},
		controllers.Forum{ArtifactsDir: dir, Locker: locker},
		nil,
		false,
	)
	return o, dir
}

func TestTick_NoIntentsLogsNoteOnly(t *testing.T) {
	o, _ := newTestOrchestrator(t, Readers{})
	require.NoError(t, o.Tick(context.Background(), 0))
}

func TestTick_AcceptedMessageIntentExecutesAndEnqueues(t *testing.T) {
	readers := Readers{
		Inbox: stubInboxReader{state: schedulers.InboxState{Threads: []schedulers.InboxThread{
			{ThreadID: "t1", Unread: true, Important: true, Subject: "hi", Snippet: "body"},
		}}},
	}
	o, dir := newTestOrchestrator(t, readers)

	require.NoError(t, o.Tick(context.Background(), 1))

	items, err := queue.Load(filepath.Join(dir, "messages", "send_queue.json"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "send_t1", items[0].Qid)
}

func TestTick_InboxReadErrorFallsBackToEmptyState(t *testing.T) {
	readers := Readers{Inbox: stubInboxReader{err: assertErrForTest}}
	o, _ := newTestOrchestrator(t, readers)
	require.NoError(t, o.Tick(context.Background(), 2))
}

type sentinelError struct{}

func (sentinelError) Error() string { return "boom" }

var assertErrForTest = sentinelError{}
