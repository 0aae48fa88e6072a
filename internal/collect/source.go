// Package collect gathers raw business records from directories, the
// built-in provider catalog and listing files, and enriches them with
// contacts found on company websites.
package collect

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Source names recorded in the source field.
const (
	SourceYellowPages = "yellow_pages"
	SourceFCC         = "fcc_broadband_data"
	SourceLocal       = "local_directories"
	SourceFile        = "listing_file"
)

// Source produces raw business records for a search.
type Source interface {
	Name() string
	Collect(ctx context.Context, params model.SearchParams) ([]model.Record, error)
}

// stamp sets provenance fields on a freshly collected record.
func stamp(rec model.Record, source string, now time.Time) model.Record {
	rec.Upgrade(model.FieldSource, source)
	rec.Upgrade(model.FieldCollectionDate, now.Format(time.DateOnly))
	return rec
}
