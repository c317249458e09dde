// Package trigger is what the transports call: it serializes sync cycles
// behind a lock, archives their results and serves the cached roster.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/keap"
	"github.com/dmitrijs2005/rostersync/internal/lock"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
)

// LockKey guards every cycle. All tags share one cache table, so cycles for
// different tags must not overlap either.
const LockKey = "rostersync:cycle"

type Runner interface {
	Run(ctx context.Context, tagID int64) (*models.SyncResult, error)
}

type Archiver interface {
	Archive(ctx context.Context, res *models.SyncResult) (string, error)
}

// Reader is the read side of the local store.
type Reader interface {
	ReadAll(ctx context.Context) ([]models.LocalEntity, error)
	LastSync(ctx context.Context) (models.SyncMark, error)
}

// RosterEntry is one cached contact as served to callers. Fields holds the
// configured custom-field projection.
type RosterEntry struct {
	LocalID   int64             `json:"local_id"`
	LookupKey string            `json:"lookup_key"`
	RemoteID  *int64            `json:"remote_id"`
	UpdatedAt time.Time         `json:"updated_at"`
	Fields    map[string]string `json:"fields,omitempty"`
}

type Service struct {
	runner     Runner
	locker     lock.Locker
	archiver   Archiver
	reader     Reader
	defaultTag int64
	fields     map[string]int
	logger     logging.Logger
}

type Option func(*Service)

// WithArchiver enables result archiving. Archive failures are only logged.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithDefaultTag sets the tag used when a caller passes 0.
func WithDefaultTag(tagID int64) Option {
	return func(s *Service) { s.defaultTag = tagID }
}

// WithRosterFields maps output field names to custom field ids.
func WithRosterFields(fields map[string]int) Option {
	return func(s *Service) { s.fields = fields }
}

func NewService(runner Runner, locker lock.Locker, reader Reader, logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	s := &Service{
		runner: runner,
		locker: locker,
		reader: reader,
		logger: logger.With("module", "trigger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one cycle. A cycle already in progress yields
// common.ErrSyncInProgress. If the lock is lost mid-cycle the cycle is
// cancelled and the error wraps lock.ErrLeaseLost; everything else is
// whatever the runner returned.
func (s *Service) Run(ctx context.Context, tagID int64) (*models.SyncResult, error) {
	if tagID == 0 {
		tagID = s.defaultTag
	}
	if tagID <= 0 {
		return nil, common.ErrInvalidTag
	}

	lease, err := s.locker.TryLock(ctx, LockKey)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, common.ErrSyncInProgress
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn(ctx, "failed to release sync lock", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-lease.Lost():
			s.logger.Error(ctx, "sync lock lost, cancelling cycle", "tag_id", tagID)
			cancel(lock.ErrLeaseLost)
		case <-runCtx.Done():
		}
	}()

	res, err := s.runner.Run(runCtx, tagID)
	if err != nil && errors.Is(context.Cause(runCtx), lock.ErrLeaseLost) {
		err = fmt.Errorf("%w: %w", lock.ErrLeaseLost, err)
	}
	if res != nil && s.archiver != nil {
		key, aerr := s.archiver.Archive(context.WithoutCancel(ctx), res)
		if aerr != nil {
			s.logger.Warn(ctx, "failed to archive sync result", "run_id", res.RunID, "error", aerr)
		} else {
			s.logger.Debug(ctx, "sync result archived", "run_id", res.RunID, "key", key)
		}
	}
	return res, err
}

// LastSync returns the completion time and tag of the last successful cycle,
// or common.ErrNotFound.
func (s *Service) LastSync(ctx context.Context) (models.SyncMark, error) {
	return s.reader.LastSync(ctx)
}

// Roster returns the cached contacts, most recently updated first.
func (s *Service) Roster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := s.reader.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RosterEntry, 0, len(rows))
	for _, row := range rows {
		entry := RosterEntry{
			LocalID:   row.LocalID,
			LookupKey: row.LookupKey,
			RemoteID:  row.RemoteID,
			UpdatedAt: row.UpdatedAt,
		}
		if len(s.fields) > 0 {
			custom := keap.CustomFields(row.Payload)
			entry.Fields = make(map[string]string, len(s.fields))
			for name, id := range s.fields {
				entry.Fields[name] = custom[id]
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
