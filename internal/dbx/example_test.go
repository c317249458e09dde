package dbx_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/dmitrijs2005/rostersync/internal/repositories/repomanager"
	"github.com/dmitrijs2005/rostersync/internal/repositories/roster"
	"github.com/dmitrijs2005/rostersync/internal/timex"
)

func ExampleWithTx() {
	ctx := context.Background()
	db, _, err := repomanager.Open(ctx, repomanager.DriverSQLite, ":memory:")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer db.Close()

	key, remoteID, payload := "a@x.com", int64(7), json.RawMessage(`{"id":7}`)
	var clock timex.Clock = timex.UTCNow

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := roster.NewSQLiteRepository(tx, clock)
		_, _, err := repo.Upsert(ctx, models.UpsertInput{LookupKey: key, RemoteID: remoteID, Payload: payload})
		return err
	})
	fmt.Println(err)

	rows, err := roster.NewSQLiteRepository(db, clock).ReadAll(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(len(rows), rows[0].LookupKey)
	// Output:
	// <nil>
	// 1 a@x.com
}
