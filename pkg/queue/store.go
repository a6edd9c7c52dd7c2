package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes read-modify-write cycles against a single queue file,
// matching spec.md §5's "reload, merge by qid, then atomically replace"
// concurrency rule between the orchestrator tick and the executor daemon.
type Locker interface {
	Lock(ctx context.Context, queuePath string) (unlock func(), err error)
}

// InProcessLocker serializes access with a single in-memory mutex and is
// the default: adequate when the orchestrator and executor run as one
// process or on one host sharing no other writers.
type InProcessLocker struct {
	mu sync.Mutex
}

func NewInProcessLocker() *InProcessLocker { return &InProcessLocker{} }

func (l *InProcessLocker) Lock(ctx context.Context, queuePath string) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// redisUnlockScript deletes the lock key only if it still holds our token,
// so a slow holder can never release a lock another process has since
// acquired after expiry.
var redisUnlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// RedisLocker coordinates queue-file access across multiple hosts using a
// SET NX PX advisory lock, for deployments that run the orchestrator and
// executor daemon as separate processes against a shared filesystem.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(addr string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, queuePath string) (func(), error) {
	key := "companion:queue-lock:" + queuePath
	token := uuid.NewString()

	deadline := time.Now().Add(l.ttl * 3)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("queue: redis lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("queue: redis lock timeout for %s", queuePath)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	unlock := func() {
		_ = redisUnlockScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}
	return unlock, nil
}

// ReadError marks a genuine I/O failure reading path (e.g. permission
// denied), as opposed to a missing file or corrupt JSON, both of which
// Load treats as an empty queue per spec.md §4.6. Callers that need to
// log a read failure to the ledger (autoapprove, controllers) can detect
// this case specifically with errors.As, without conflating it with a
// lock, mutate, or write failure from WithLock.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("queue: read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// Load reads the JSON array of items at path. A missing file, and a file
// whose contents fail to parse as JSON, are both treated as an empty
// queue (spec.md §4.6: "Read returns the empty list on file-not-found or
// parse error") rather than failing the caller; a corrupt file is left
// on disk untouched for later inspection, not overwritten silently.
func Load(path string) ([]Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

// Write atomically replaces path's contents with items, via the
// write-to-temp-then-rename pattern so a crash mid-write never leaves a
// truncated queue file on disk.
func Write(path string, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("queue: encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("queue: ensure dir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("queue: write temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("queue: commit %s: %w", path, err)
	}
	return nil
}

// WithLock loads items under lock, lets fn mutate them, and writes the
// result back before releasing the lock — the single choke point every
// queue mutator (controller enqueue, auto-approve stamping, executor
// status update) should go through.
func WithLock(ctx context.Context, locker Locker, path string, fn func([]Item) ([]Item, error)) error {
	unlock, err := locker.Lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	items, err := Load(path)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return Write(path, next)
}
