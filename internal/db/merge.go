package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Merge describes how a batch folds into a table keyed by one column.
type Merge struct {
	Table   string
	Key     string
	Columns []string // staged columns, Key included

	// Keep lists columns written when a key is first seen and left alone
	// afterwards, e.g. first_run_id.
	Keep []string

	// Counter, when set, names an integer column that starts at its default
	// and gains one each time an existing key is merged again.
	Counter string
}

// stage is the session-local table a batch is copied into before merging.
func (m Merge) stage() string {
	return "stage_" + m.Table
}

// updates returns the SET list for keys already present.
func (m Merge) updates() []string {
	var set []string
	for _, c := range m.Columns {
		if c == m.Key || slices.Contains(m.Keep, c) {
			continue
		}
		id := pgx.Identifier{c}.Sanitize()
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", id, id))
	}
	if m.Counter != "" {
		id := pgx.Identifier{m.Counter}.Sanitize()
		set = append(set, fmt.Sprintf("%s = %s.%s + 1", id, pgx.Identifier{m.Table}.Sanitize(), id))
	}
	return set
}

func (m Merge) check() error {
	switch {
	case m.Table == "":
		return eris.New("db: merge: no table")
	case len(m.Columns) == 0:
		return eris.Errorf("db: merge %s: no columns", m.Table)
	case !slices.Contains(m.Columns, m.Key):
		return eris.Errorf("db: merge %s: key %q is not a staged column", m.Table, m.Key)
	case len(m.updates()) == 0:
		return eris.Errorf("db: merge %s: nothing to update on conflict", m.Table)
	}
	return nil
}

// SQL returns the statement that folds the staged batch into the table.
func (m Merge) SQL() string {
	cols := quoteList(m.Columns)
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		pgx.Identifier{m.Table}.Sanitize(),
		cols,
		cols,
		pgx.Identifier{m.stage()}.Sanitize(),
		pgx.Identifier{m.Key}.Sanitize(),
		strings.Join(m.updates(), ", "),
	)
}

// MergeRows copies rows into a staging table and folds them into m.Table in
// one transaction, returning the number of rows inserted or updated. A key
// may appear only once per batch.
func MergeRows(ctx context.Context, pool Pool, m Merge, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.check(); err != nil {
		return 0, err
	}
	if err := checkWidth(m.Columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s", m.Table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: begin", m.Table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stage := pgx.Identifier{m.stage()}
	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		stage.Sanitize(), pgx.Identifier{m.Table}.Sanitize())
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: create stage", m.Table)
	}
	if _, err := tx.CopyFrom(ctx, stage, m.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: stage rows", m.Table)
	}

	tag, err := tx.Exec(ctx, m.SQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge %s", m.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: commit", m.Table)
	}
	return tag.RowsAffected(), nil
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
