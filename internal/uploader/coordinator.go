// Package uploader coordinates multi-file image uploads for a product form
// session: optimistic pending placeholders, parallel transfers tracked as one
// batch, and reconciliation of the resulting asset handles into the draft.
package uploader

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nextall/admincore/internal/assetstore"
	"github.com/nextall/admincore/internal/domain"
	"github.com/nextall/admincore/internal/forms"
	"github.com/nextall/admincore/internal/notify"
)

// AssetStore is the slice of the object-storage API the coordinator consumes.
type AssetStore interface {
	Upload(ctx context.Context, f assetstore.File, onProgress assetstore.ProgressFunc) (assetstore.AssetInfo, error)
	Delete(ctx context.Context, remoteID string) error
}

var _ AssetStore = (*assetstore.Client)(nil)

// Draft is the single serialized mutation channel into the form's draft.
// The coordinator never touches draft state outside of it.
type Draft interface {
	Apply(fn func(d *domain.ProductDraft))
}

var _ Draft = (*forms.Controller)(nil)

const deletePoolSize = 4

// Coordinator uploads batches of locally selected files and reconciles the
// resulting remote handles into the draft's image sequence.
type Coordinator struct {
	draft    Draft
	store    AssetStore
	notifier notify.Notifier
	janitor  *Janitor

	node    *snowflake.Node
	deletes *ants.Pool

	mu       sync.Mutex
	current  int // latest per-file percentage observed, see Progress
	loaded   []int64
	sizes    []int64
	inflight bool
}

// NewCoordinator wires a coordinator to a draft. janitor may be nil; when set,
// assets whose fire-and-forget delete failed are queued there for retry.
func NewCoordinator(draft Draft, store AssetStore, notifier notify.Notifier, janitor *Janitor) (*Coordinator, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, errors.Wrap(err, "uploader: snowflake node")
	}
	pool, err := ants.NewPool(deletePoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "uploader: delete pool")
	}
	return &Coordinator{
		draft:    draft,
		store:    store,
		notifier: notifier,
		janitor:  janitor,
		node:     node,
		deletes:  pool,
	}, nil
}

// Release frees the delete executor. In-flight deletes finish first.
func (c *Coordinator) Release() {
	c.deletes.Release()
}

// EnqueueUpload uploads the given files as one batch. A pending placeholder
// (preview handle, no remote id) is appended to the draft for every file
// before any network call resolves. Uploads run concurrently; the batch
// settles as a unit. Only when every upload succeeded are the placeholders
// reconciled in place with their remote id and URL, in input order. Any
// single failure rejects the whole batch: nothing is committed, one error
// notification fires, and the pending placeholders stay in the draft so the
// caller can retry the batch. In-flight sibling uploads are not cancelled
// beyond the group's context propagation.
func (c *Coordinator) EnqueueUpload(ctx context.Context, files []assetstore.File) error {
	if len(files) == 0 {
		return nil
	}

	batch := c.node.Generate()
	previews := make([]string, len(files))
	for i := range files {
		previews[i] = "blob:" + uuid.NewString()
	}

	// Optimistic append so the UI can render placeholders immediately.
	c.draft.Apply(func(d *domain.ProductDraft) {
		for _, pv := range previews {
			d.Images = append(d.Images, domain.ImageRef{Preview: pv})
		}
	})

	c.beginBatch(files)

	results := make([]assetstore.AssetInfo, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		f := files[i]
		g.Go(func() error {
			info, err := c.store.Upload(gctx, f, func(loaded, total int64) {
				c.observeProgress(i, loaded, total)
			})
			if err != nil {
				return errors.Wrapf(err, "upload %s", f.Name)
			}
			results[i] = info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.endBatch()
		zap.L().Warn("upload batch failed",
			zap.String("batch", batch.String()),
			zap.Int("files", len(files)),
			zap.Error(err),
		)
		c.notifier.Error(err.Error())
		return err
	}
	c.endBatch()

	// All uploads resolved: commit each placeholder in place, matched by the
	// preview handle of the originating file.
	c.draft.Apply(func(d *domain.ProductDraft) {
		for i, pv := range previews {
			for j := range d.Images {
				if d.Images[j].Preview == pv && d.Images[j].RemoteID == "" {
					d.Images[j].RemoteID = results[i].RemoteID
					d.Images[j].URL = results[i].URL
					break
				}
			}
		}
	})

	zap.L().Info("upload batch committed",
		zap.String("batch", batch.String()),
		zap.Int("files", len(files)),
	)
	return nil
}

func (c *Coordinator) beginBatch(files []assetstore.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
	c.loaded = make([]int64, len(files))
	c.sizes = make([]int64, len(files))
	for i, f := range files {
		c.sizes[i] = int64(len(f.Content))
	}
	c.inflight = true
}

func (c *Coordinator) endBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false
}

func (c *Coordinator) observeProgress(i int, loaded, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < len(c.loaded) {
		c.loaded[i] = loaded
	}
	if total > 0 {
		c.current = int(loaded * 100 / total)
	}
}

// Progress returns the batch progress snapshot as the most recently fired
// per-file callback's percentage. This reproduces the stock aggregation,
// which reports latest-callback-wins rather than a byte-weighted total; use
// BytesProgress for the weighted figure.
func (c *Coordinator) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// BytesProgress returns the batch percentage weighted by total bytes.
func (c *Coordinator) BytesProgress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var loaded, total int64
	for i := range c.sizes {
		loaded += c.loaded[i]
		total += c.sizes[i]
	}
	if total == 0 {
		return 0
	}
	return int(loaded * 100 / total)
}

// Uploading reports whether a batch is currently in flight.
func (c *Coordinator) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// RemoveImage removes ref from the draft immediately. Committed entries
// additionally get one asynchronous delete against the remote store;
// a delete failure is surfaced as a notification only and the local removal
// is not rolled back.
func (c *Coordinator) RemoveImage(ref domain.ImageRef) {
	removed := false
	c.draft.Apply(func(d *domain.ProductDraft) {
		for i := range d.Images {
			if sameRef(d.Images[i], ref) {
				d.Images = append(d.Images[:i], d.Images[i+1:]...)
				removed = true
				return
			}
		}
	})
	if removed && ref.Committed() {
		c.asyncDelete(ref.RemoteID)
	}
}

// RemoveAllImages issues one delete per committed image and clears the
// sequence unconditionally. Still-pending entries are dropped as well; their
// uploads, if any are in flight, finish unobserved.
func (c *Coordinator) RemoveAllImages() {
	var ids []string
	c.draft.Apply(func(d *domain.ProductDraft) {
		for _, img := range d.Images {
			if img.Committed() {
				ids = append(ids, img.RemoteID)
			}
		}
		d.Images = d.Images[:0]
	})
	for _, id := range ids {
		c.asyncDelete(id)
	}
}

func (c *Coordinator) asyncDelete(remoteID string) {
	task := func() {
		if err := c.store.Delete(context.Background(), remoteID); err != nil {
			zap.L().Warn("asset delete failed", zap.String("remote_id", remoteID), zap.Error(err))
			c.notifier.Error(err.Error())
			if c.janitor != nil {
				c.janitor.Enqueue(remoteID)
			}
			return
		}
		zap.L().Debug("asset deleted", zap.String("remote_id", remoteID))
	}
	if err := c.deletes.Submit(task); err != nil {
		// Pool released or overloaded; fall through to a plain goroutine so
		// the delete is still attempted.
		go task()
	}
}

func sameRef(a, b domain.ImageRef) bool {
	if b.RemoteID != "" {
		return a.RemoteID == b.RemoteID
	}
	return a.Preview != "" && a.Preview == b.Preview
}
