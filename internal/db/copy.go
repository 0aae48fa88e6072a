// Package db holds the Postgres bulk helpers behind the run store: COPY for
// per-run lead rows and a staged merge for the cross-run lead registry.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Copy streams rows into table over the COPY protocol. Every row must carry
// one value per column; a short or long row fails before anything is sent.
func Copy(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := checkWidth(columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: copy into %s", table)
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: copy into %s", table)
	}
	return n, nil
}

func checkWidth(columns []string, rows [][]any) error {
	for i, r := range rows {
		if len(r) != len(columns) {
			return eris.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
	}
	return nil
}
