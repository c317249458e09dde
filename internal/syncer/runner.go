// Package syncer runs one sync cycle end to end: fetch the tag, reconcile the
// local cache, record the completion time.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/fetcher"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/dmitrijs2005/rostersync/internal/timex"
	"github.com/google/uuid"
)

const DefaultPageSize = 1000

type Fetcher interface {
	FetchTagged(ctx context.Context, tagID int64, pageSize int) (*fetcher.Result, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, records []models.RemoteRecord, skipped []int64, res *models.SyncResult) error
}

// SyncRecorder persists the completion of a successful cycle.
type SyncRecorder interface {
	RecordSync(ctx context.Context, completedAt time.Time, tagID int64) error
}

type Runner struct {
	fetcher    Fetcher
	reconciler Reconciler
	recorder   SyncRecorder
	pageSize   int
	now        timex.Clock
	newRunID   func() string
	logger     logging.Logger

	mu    sync.Mutex
	state State
}

type Option func(*Runner)

func WithPageSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

func WithClock(now timex.Clock) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func WithRunIDs(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newRunID = fn
		}
	}
}

func NewRunner(f Fetcher, rec Reconciler, recorder SyncRecorder, logger logging.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Runner{
		fetcher:    f,
		reconciler: rec,
		recorder:   recorder,
		pageSize:   DefaultPageSize,
		now:        timex.UTCNow,
		newRunID:   uuid.NewString,
		logger:     logger.With("module", "syncer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports where the current or most recent cycle is.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(ctx context.Context, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !canTransition(r.state, to) {
		r.logger.Error(ctx, "invalid state transition", "from", r.state.String(), "to", to.String())
	}
	r.state = to
}

// Run performs one cycle for tagID.
//
// A fatal fetch failure returns a result with zero counts and a single error
// alongside an error wrapping common.ErrFetchFailed; last_sync is left as is.
// Per-record failures are collected on the result and the cycle still
// completes. If ctx ends first the cycle is abandoned: no result, no
// metadata, and ctx's error is returned.
//
// Run must not be called concurrently; callers serialize cycles.
func (r *Runner) Run(ctx context.Context, tagID int64) (*models.SyncResult, error) {
	if tagID <= 0 {
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidTag, tagID)
	}

	res := models.NewSyncResult(r.newRunID(), tagID)
	log := r.logger.With("run_id", res.RunID, "tag_id", tagID)

	r.setState(ctx, StateFetching)
	log.Info(ctx, "sync started")

	fetched, err := r.fetcher.FetchTagged(ctx, tagID, r.pageSize)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.setState(ctx, StateIdle)
			log.Warn(ctx, "sync abandoned during fetch", "error", ctxErr)
			return nil, ctxErr
		}
		r.setState(ctx, StateFailed)
		if !errors.Is(err, common.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", common.ErrFetchFailed, err)
		}
		res.AddError("%v", err)
		res.CompletedAt = r.now()
		log.Error(ctx, "sync failed", "error", err)
		return res, err
	}

	r.setState(ctx, StateReconciling)
	res.Fetched = len(fetched.Records)
	res.Errors = append(res.Errors, fetched.Warnings...)

	if err := r.reconciler.Reconcile(ctx, fetched.Records, fetched.Skipped, res); err != nil {
		r.setState(ctx, StateIdle)
		log.Warn(ctx, "sync abandoned during reconcile", "error", err)
		return nil, err
	}

	res.CompletedAt = r.now()
	if err := r.recorder.RecordSync(ctx, res.CompletedAt, tagID); err != nil {
		log.Warn(ctx, "failed to record last sync", "error", err)
		res.AddError("record last_sync: %v", err)
	}

	r.setState(ctx, StateDone)
	log.Info(ctx, "sync completed",
		"fetched", res.Fetched,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"orphans_removed", res.OrphansRemoved,
		"duplicates_removed", res.DuplicatesRemoved,
		"errors", len(res.Errors),
	)
	return res, nil
}
