package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one listing row keyed by normalized header name.
type Row map[string]string

// NormalizeHeader lower-cases a column header and joins its words with
// underscores, so "Business Name" and "business_name" match.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("-", " ", "/", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), "_")
}

func toRow(header, cells []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if h == "" || i >= len(cells) {
			continue
		}
		if v := strings.TrimSpace(cells[i]); v != "" {
			row[h] = v
		}
	}
	return row
}

func normalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// CSVOptions configures StreamCSV.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // 0 = none
	LazyQuotes bool
}

// StreamCSV reads a headed CSV and sends each data row, keyed by header, to
// the row channel. Blank rows are skipped. Both channels are closed when
// processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		var header []string
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				if header == nil {
					errCh <- eris.New("fetcher: csv has no header row")
				}
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "fetcher: csv read row")
				return
			}

			if header == nil {
				header = normalizeHeaders(record)
				continue
			}
			row := toRow(header, record)
			if len(row) == 0 {
				continue
			}

			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// Collect drains a row stream into a slice and returns the stream's error.
func Collect(rows <-chan Row, errs <-chan error) ([]Row, error) {
	var out []Row
	for row := range rows {
		out = append(out, row)
	}
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}
