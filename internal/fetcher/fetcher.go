// Package fetcher pulls every contact carrying a tag from the remote system:
// a listing pass that pages by offset, and one detail request per listed id.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/keap"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"golang.org/x/sync/errgroup"
)

// Source is the remote API. keap.Client implements it.
type Source interface {
	ListTaggedContactIDs(ctx context.Context, tagID int64, limit, offset int) ([]int64, error)
	GetContact(ctx context.Context, id int64) (json.RawMessage, error)
}

// Result is a completed fetch. Records keep listing order. Skipped holds the
// ids whose detail request failed, with one warning per skipped id.
type Result struct {
	Records  []models.RemoteRecord
	Skipped  []int64
	Warnings []string
}

type Fetcher struct {
	src          Source
	workers      int
	primaryEmail func(json.RawMessage) string
	logger       logging.Logger
}

type Option func(*Fetcher)

// WithWorkers sets how many detail requests may be in flight at once.
func WithWorkers(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithEmailExtractor overrides how the primary email is read from a payload.
func WithEmailExtractor(fn func(json.RawMessage) string) Option {
	return func(f *Fetcher) {
		if fn != nil {
			f.primaryEmail = fn
		}
	}
}

func New(src Source, logger logging.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = logging.Nop()
	}
	f := &Fetcher{
		src:          src,
		workers:      1,
		primaryEmail: keap.PrimaryEmail,
		logger:       logger.With("module", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchTagged lists every contact carrying tagID and fetches its detail.
//
// A listing failure is fatal: the error wraps common.ErrFetchFailed and no
// records are returned. A detail failure drops that one record and is
// reported in Result.Skipped and Result.Warnings. Records without an email
// are kept. Offset paging over a listing that changes mid-walk can return
// an id on two pages; each id is fetched and reported once, at its first
// position.
func (f *Fetcher) FetchTagged(ctx context.Context, tagID int64, pageSize int) (*Result, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	res := &Result{}
	seen := make(map[int64]struct{})
	pages := f.Pages(tagID, pageSize)
	for {
		ids, ok, err := pages.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		fresh := ids[:0:0]
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			fresh = append(fresh, id)
		}
		if n := len(ids) - len(fresh); n > 0 {
			f.logger.Debug(ctx, "dropped ids already listed", "tag_id", tagID, "count", n)
		}
		if err := f.fetchDetails(ctx, fresh, res); err != nil {
			return nil, err
		}
	}

	f.logger.Info(ctx, "fetch completed", "tag_id", tagID, "fetched", len(res.Records), "skipped", len(res.Skipped))
	return res, nil
}

type detailSlot struct {
	record models.RemoteRecord
	err    error
}

// fetchDetails resolves one page of ids. Each goroutine owns one slot, so
// page order survives any number of workers.
func (f *Fetcher) fetchDetails(ctx context.Context, ids []int64, res *Result) error {
	slots := make([]detailSlot, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, id := range ids {
		g.Go(func() error {
			raw, err := f.src.GetContact(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slots[i].err = err
				return nil
			}
			slots[i].record = models.RemoteRecord{
				RemoteID:     id,
				PrimaryEmail: f.primaryEmail(raw),
				RawPayload:   raw,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range slots {
		if s.err != nil {
			f.logger.Warn(ctx, "detail fetch failed, skipping record", "remote_id", ids[i], "error", s.err)
			res.Skipped = append(res.Skipped, ids[i])
			res.Warnings = append(res.Warnings, fmt.Sprintf("remote_id %d: detail fetch failed: %v", ids[i], s.err))
			continue
		}
		res.Records = append(res.Records, s.record)
	}
	return nil
}

// Pager walks the tag listing one page at a time in increasing offset order.
// It is single use: once exhausted or failed it keeps returning the same
// outcome.
type Pager struct {
	src      Source
	tagID    int64
	pageSize int
	offset   int
	done     bool
	err      error
}

func (f *Fetcher) Pages(tagID int64, pageSize int) *Pager {
	return &Pager{src: f.src, tagID: tagID, pageSize: pageSize}
}

// Next returns the next page of ids. ok is false after the last page, which
// is the first one shorter than the page size. Errors wrap
// common.ErrFetchFailed unless the context ended.
func (p *Pager) Next(ctx context.Context) (ids []int64, ok bool, err error) {
	if p.err != nil {
		return nil, false, p.err
	}
	if p.done {
		return nil, false, nil
	}

	ids, err = p.src.ListTaggedContactIDs(ctx, p.tagID, p.pageSize, p.offset)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.err = ctxErr
		} else {
			p.err = fmt.Errorf("%w: tag %d offset %d: %w", common.ErrFetchFailed, p.tagID, p.offset, err)
		}
		return nil, false, p.err
	}

	p.offset += len(ids)
	if len(ids) < p.pageSize {
		p.done = true
	}
	if len(ids) == 0 {
		return nil, false, nil
	}
	return ids, true, nil
}
