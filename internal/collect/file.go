package collect

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// headerAliases maps normalized listing headers onto record fields. The
// first alias present in a row wins.
var headerAliases = map[string][]string{
	model.FieldBusinessName:        {"business_name", "company_name", "company", "name"},
	model.FieldPhone:               {"phone_number", "phone", "telephone"},
	model.FieldWebsite:             {"website", "website_url", "url"},
	model.FieldAddress:             {"address", "business_address", "street"},
	model.FieldBusinessDescription: {"business_description", "description"},
	model.FieldCategories:          {"categories", "category"},
	model.FieldIndustry:            {"industry"},
	model.FieldGeneralEmail:        {"general_email", "email", "e_mail"},
	model.FieldServiceType:         {"service_type"},
	model.FieldCoverage:            {"coverage", "service_coverage"},
	model.FieldCompanySize:         {"company_size", "employees"},
}

// FileSource imports records from a CSV, TSV or XLSX listing at a local path
// or an http(s)/ftp URL.
type FileSource struct {
	opener *fetcher.Opener
	src    string
	now    func() time.Time
}

// NewFileSource creates a listing-file source.
func NewFileSource(opener *fetcher.Opener, src string) *FileSource {
	return &FileSource{opener: opener, src: src, now: time.Now}
}

// Name implements Source.
func (f *FileSource) Name() string { return SourceFile }

// Collect implements Source. Rows without a business name are skipped.
func (f *FileSource) Collect(ctx context.Context, params model.SearchParams) ([]model.Record, error) {
	if f.src == "" {
		return nil, eris.New("collect: listing file source has no path")
	}
	rows, errs := f.opener.StreamListing(ctx, f.src)

	now := f.now()
	var out []model.Record
	skipped := 0
	for row := range rows {
		if params.MaxResults > 0 && len(out) >= params.MaxResults {
			continue // drain so the reader can finish
		}
		rec := RecordFromRow(row)
		if !rec.Has(model.FieldBusinessName) {
			skipped++
			continue
		}
		out = append(out, stamp(rec, SourceFile, now))
	}
	if err := <-errs; err != nil {
		return out, eris.Wrapf(err, "collect: read listing %s", f.src)
	}

	zap.L().Info("collect: listing file imported",
		zap.String("src", f.src),
		zap.Int("records", len(out)),
		zap.Int("skipped", skipped),
	)
	return out, nil
}

// RecordFromRow maps a listing row onto record fields via the header aliases.
func RecordFromRow(row fetcher.Row) model.Record {
	fields := make(map[string]string, len(headerAliases))
	for field, aliases := range headerAliases {
		for _, a := range aliases {
			if v := row[a]; v != "" {
				fields[field] = v
				break
			}
		}
	}
	return model.NewRecord(fields)
}
