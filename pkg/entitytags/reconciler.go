package entitytags

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/config"
	"github.com/bokahq/boka/pkg/database"
	"github.com/bokahq/boka/pkg/models"
)

const (
	// Three attempts total per counter update: the first try plus two
	// retries, backing off 50ms then 100ms.
	usageCountRetries   = 2
	usageCountBaseDelay = 50 * time.Millisecond
)

type usageDelta struct {
	removed []string
	added   []string
}

// Reconciler brings tags.usage_count toward the real association counts
// without ever blocking or failing the write path that produced the change.
// Counts are an analytics aid, not a source of truth: on persistent
// contention a delta is logged and abandoned, and the count drifts until a
// later delta lands.
type Reconciler struct {
	db  *bun.DB
	log logger.Logger

	queue          chan usageDelta
	shutdown       chan struct{}
	doneProcessing chan struct{}
	workers        int
}

func NewReconciler(cfg *config.Config, db *bun.DB) *Reconciler {
	return &Reconciler{
		db:  db,
		log: logger.New(),

		queue:          make(chan usageDelta, cfg.ReconcilerQueueSize),
		shutdown:       make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.ReconcilerWorkers),
		workers:        cfg.ReconcilerWorkers,
	}
}

func (r *Reconciler) Start() {
	for i := 0; i < r.workers; i++ {
		go r.processDeltas()
	}
}

func (r *Reconciler) Shutdown() {
	close(r.shutdown)
	for i := 0; i < r.workers; i++ {
		<-r.doneProcessing
	}
}

// Enqueue hands a committed tag delta to the background workers and returns
// immediately. This is the single call site for usage-count updates per
// mutation: whoever owned the committed transaction enqueues exactly once,
// after commit, and nothing else writes usage_count. If the queue is full the
// delta is dropped with a warning rather than blocking the request path.
func (r *Reconciler) Enqueue(oldTagIDs, newTagIDs []string) {
	removed, added := diffTagIDs(oldTagIDs, newTagIDs)
	if len(removed) == 0 && len(added) == 0 {
		return
	}

	select {
	case r.queue <- usageDelta{removed: removed, added: added}:
	default:
		r.log.Warn("usage count queue full, dropping delta", logger.Data{
			"removed": len(removed),
			"added":   len(added),
		})
	}
}

func (r *Reconciler) processDeltas() {
	for {
		select {
		case <-r.shutdown:
			r.doneProcessing <- struct{}{}
			return
		case d := <-r.queue:
			id, err := uuid.NewRandom()
			if err != nil {
				r.log.Err(err).Error("new uuid error")
				continue
			}
			log := r.log.ID(id.String())
			ctx := log.WithContext(context.Background())

			r.apply(ctx, d)
		}
	}
}

// Apply synchronously adjusts usage counts for the change from oldTagIDs to
// newTagIDs. The background workers funnel into this; it's exported for
// callers that want to reconcile inline (the consolidation CLI, tests).
// Errors are logged and swallowed, never returned.
func (r *Reconciler) Apply(ctx context.Context, oldTagIDs, newTagIDs []string) {
	removed, added := diffTagIDs(oldTagIDs, newTagIDs)
	r.apply(ctx, usageDelta{removed: removed, added: added})
}

func (r *Reconciler) apply(ctx context.Context, d usageDelta) {
	for _, tagID := range d.removed {
		r.adjustUsageCount(ctx, tagID, -1)
	}
	for _, tagID := range d.added {
		r.adjustUsageCount(ctx, tagID, +1)
	}
}

// adjustUsageCount applies a single-row atomic increment or decrement. The
// arithmetic happens in SQL, not in application code, so concurrent deltas
// can't lose updates; the decrement floors at zero.
func (r *Reconciler) adjustUsageCount(ctx context.Context, tagID string, delta int) {
	err := database.RetryOnBusy(ctx, usageCountRetries, usageCountBaseDelay, func() error {
		q := r.db.NewUpdate().
			Model((*models.Tag)(nil)).
			Where("id = ?", tagID)
		if delta > 0 {
			q = q.Set("usage_count = usage_count + 1")
		} else {
			q = q.Set("usage_count = MAX(usage_count - 1, 0)")
		}
		_, err := q.Exec(ctx)
		return err
	})
	if err != nil {
		// Non-critical: the count drifts instead of blocking anything.
		logger.FromContext(ctx).Err(err).Warn("usage count update abandoned", logger.Data{
			"tag_id": tagID,
			"delta":  delta,
		})
	}
}

// diffTagIDs returns the IDs present only in old (removed) and only in new
// (added).
func diffTagIDs(oldTagIDs, newTagIDs []string) (removed, added []string) {
	oldSet := map[string]bool{}
	for _, id := range dedupe(oldTagIDs) {
		oldSet[id] = true
	}
	newSet := map[string]bool{}
	for _, id := range dedupe(newTagIDs) {
		newSet[id] = true
	}

	for _, id := range dedupe(oldTagIDs) {
		if !newSet[id] {
			removed = append(removed, id)
		}
	}
	for _, id := range dedupe(newTagIDs) {
		if !oldSet[id] {
			added = append(added, id)
		}
	}
	return removed, added
}
