package uploader

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor re-attempts asset deletes that failed their fire-and-forget call.
// It is an opt-in consistency aid: the stock pipeline accepts divergence
// between the local draft and remote storage, so the janitor only runs when
// enabled in configuration.
type Janitor struct {
	store AssetStore
	cron  *cron.Cron

	mu      sync.Mutex
	pending []string
	seen    map[string]struct{}
}

// NewJanitor builds a janitor flushing on the given cron schedule
// (e.g. "@every 1m").
func NewJanitor(store AssetStore, schedule string) (*Janitor, error) {
	if schedule == "" {
		schedule = "@every 1m"
	}
	j := &Janitor{
		store: store,
		cron:  cron.New(),
		seen:  make(map[string]struct{}),
	}
	if _, err := j.cron.AddFunc(schedule, j.Flush); err != nil {
		return nil, errors.Wrapf(err, "uploader: janitor schedule %q", schedule)
	}
	return j, nil
}

// Start begins scheduled flushing.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule. A flush already running completes.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Enqueue records a remote id whose delete failed. Duplicate ids coalesce.
func (j *Janitor) Enqueue(remoteID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.seen[remoteID]; ok {
		return
	}
	j.seen[remoteID] = struct{}{}
	j.pending = append(j.pending, remoteID)
	zap.L().Info("asset delete queued for retry", zap.String("remote_id", remoteID))
}

// Pending returns the ids currently awaiting retry.
func (j *Janitor) Pending() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string{}, j.pending...)
}

// Flush retries every queued delete once. Ids that fail again stay queued.
func (j *Janitor) Flush() {
	j.mu.Lock()
	batch := j.pending
	j.pending = nil
	j.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var kept []string
	for _, id := range batch {
		if err := j.store.Delete(context.Background(), id); err != nil {
			zap.L().Warn("asset delete retry failed", zap.String("remote_id", id), zap.Error(err))
			kept = append(kept, id)
			continue
		}
		zap.L().Info("asset delete retry succeeded", zap.String("remote_id", id))
		j.mu.Lock()
		delete(j.seen, id)
		j.mu.Unlock()
	}

	if len(kept) > 0 {
		j.mu.Lock()
		j.pending = append(kept, j.pending...)
		j.mu.Unlock()
	}
}
