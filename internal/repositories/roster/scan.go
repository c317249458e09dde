package roster

import (
	"database/sql"

	"github.com/dmitrijs2005/rostersync/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func remoteIDPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func scanRows(rows *sql.Rows, scan func(rowScanner) (models.LocalEntity, error)) ([]models.LocalEntity, error) {
	defer rows.Close()

	var result []models.LocalEntity
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
