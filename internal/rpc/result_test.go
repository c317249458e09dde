package rpc

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestResultStructConversion(t *testing.T) {
	res := models.NewSyncResult("run-1", 42)
	res.Fetched = 10
	res.Inserted = 3
	res.Updated = 6
	res.OrphansRemoved = 1
	res.DuplicatesRemoved = 2
	res.AddError("remote_id %d: detail fetch failed", 9)
	res.CompletedAt = time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)

	s, err := ResultToStruct(res)
	require.NoError(t, err)
	require.Equal(t, float64(3), s.Fields["inserted"].GetNumberValue())
	require.Equal(t, "run-1", s.Fields["run_id"].GetStringValue())

	back, err := StructToResult(s)
	require.NoError(t, err)
	if diff := cmp.Diff(res, back); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestStructToResult_EmptyErrorsNotNil(t *testing.T) {
	res := models.NewSyncResult("r", 1)
	s, err := ResultToStruct(res)
	require.NoError(t, err)

	back, err := StructToResult(s)
	require.NoError(t, err)
	require.NotNil(t, back.Errors)
}
