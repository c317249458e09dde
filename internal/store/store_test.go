package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/dmitrijs2005/rostersync/internal/repositories/repomanager"
	"github.com/dmitrijs2005/rostersync/internal/repositories/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, m, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, m, logging.Nop())
}

func in(key string, id int64) models.UpsertInput {
	return models.UpsertInput{LookupKey: key, RemoteID: id, Payload: []byte(`{}`)}
}

func TestUpsertBatch_CommitsAndReportsOutcomes(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	res := s.UpsertBatch(ctx, []models.UpsertInput{in("a@x.com", 1), in("b@x.com", 2)})
	require.Len(t, res, 2)
	for _, r := range res {
		require.NoError(t, r.Err)
		assert.Equal(t, models.Inserted, r.Outcome)
	}

	res = s.UpsertBatch(ctx, []models.UpsertInput{in("b@x.com", 2), in("c@x.com", 3)})
	assert.Equal(t, models.Updated, res[0].Outcome)
	assert.Equal(t, models.Inserted, res[1].Outcome)

	rows, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestUpsertBatch_Empty(t *testing.T) {
	s := newSQLiteStore(t)
	assert.Nil(t, s.UpsertBatch(context.Background(), nil))
}

// failingRoster fails upserts for one key regardless of the handle it is
// bound to.
type failingRoster struct {
	roster.Repository
	failKey string
	calls   []string
}

func (f *failingRoster) Upsert(ctx context.Context, in models.UpsertInput) (*models.LocalEntity, models.UpsertOutcome, error) {
	f.calls = append(f.calls, in.LookupKey)
	if in.LookupKey == f.failKey {
		return nil, 0, errors.New("constraint violated")
	}
	return &models.LocalEntity{LookupKey: in.LookupKey}, models.Inserted, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	r *failingRoster
}

func (m *fakeRepoManager) Roster(dbx.DBTX) roster.Repository { return m.r }

func TestUpsertBatch_TxFailureReplaysPerRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	r := &failingRoster{failKey: "b@x.com"}
	s := New(db, &fakeRepoManager{r: r}, nil)

	res := s.UpsertBatch(context.Background(), []models.UpsertInput{in("a@x.com", 1), in("b@x.com", 2), in("c@x.com", 3)})
	require.Len(t, res, 3)
	assert.NoError(t, res[0].Err)
	assert.EqualError(t, res[1].Err, "constraint violated")
	assert.NoError(t, res[2].Err)
	assert.Equal(t, models.Inserted, res[2].Outcome)

	// a, b in the tx; then a, b, c replayed
	assert.Equal(t, []string{"a@x.com", "b@x.com", "a@x.com", "b@x.com", "c@x.com"}, r.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatch_CancelledContextFailsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock.ExpectBegin().WillReturnError(context.Canceled)

	s := New(db, &fakeRepoManager{r: &failingRoster{}}, nil)
	res := s.UpsertBatch(ctx, []models.UpsertInput{in("a@x.com", 1)})
	require.Len(t, res, 1)
	assert.ErrorIs(t, res[0].Err, context.Canceled)
}

func TestDeleteByIDs(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	res := s.UpsertBatch(ctx, []models.UpsertInput{in("a@x.com", 1), in("b@x.com", 2)})
	n, err := s.DeleteByIDs(ctx, []int64{res[0].Entity.LocalID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b@x.com", rows[0].LookupKey)
}

func TestRecordSyncAndLastSync(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.LastSync(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	at := time.Date(2026, 3, 1, 12, 30, 0, 123, time.FixedZone("x", 3600))
	require.NoError(t, s.RecordSync(ctx, at, 42))

	got, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, at.Equal(got.CompletedAt))
	assert.Equal(t, time.UTC, got.CompletedAt.Location())
	assert.Equal(t, int64(42), got.TagID)

	// upsert semantics
	require.NoError(t, s.RecordSync(ctx, at.Add(time.Hour), 7))
	got, err = s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, at.Add(time.Hour).Equal(got.CompletedAt))
	assert.Equal(t, int64(7), got.TagID)
}

func TestLastSync_Corrupt(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMetadata(ctx, "last_sync", []byte("yesterday")))
	_, err := s.LastSync(ctx)
	require.ErrorContains(t, err, "invalid last_sync value")

	require.NoError(t, s.SetMetadata(ctx, "last_sync", []byte("2026-01-01T00:00:00Z")))
	require.NoError(t, s.SetMetadata(ctx, "last_sync_tag", []byte("seven")))
	_, err = s.LastSync(ctx)
	require.ErrorContains(t, err, "invalid last_sync_tag value")
}

func TestUpsertAndMetadata(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e, outcome, err := s.Upsert(ctx, in("a@x.com", 9))
	require.NoError(t, err)
	assert.Equal(t, models.Inserted, outcome)
	require.NotNil(t, e.RemoteID)
	assert.Equal(t, int64(9), *e.RemoteID)

	v, err := s.GetMetadata(ctx, "cursor")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.SetMetadata(ctx, "cursor", []byte("abc")))
	v, err = s.GetMetadata(ctx, "cursor")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
}
