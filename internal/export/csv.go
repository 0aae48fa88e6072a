// Package export writes pipeline results to CSV and XLSX files and pushes
// them to external lead systems.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/validate"
)

// VerificationAuto marks rows nobody has reviewed.
const VerificationAuto = "auto_extracted"

// crmFallbacks name the record field read when a CRM column has no value of
// its own.
var crmFallbacks = map[string]string{
	"headquarters_address": model.FieldAddress,
	"phone_main":           model.FieldPhone,
	"website_url":          model.FieldWebsite,
	"industry_primary":     model.FieldIndustry,
	"email_general":        model.FieldGeneralEmail,
	"data_source":          model.FieldSource,
}

// Table is a header plus rows ready for a file writer.
type Table struct {
	Header []string
	Rows   [][]string
}

// CRMTable renders records in CRMColumns order. now fills the collection and
// update timestamps when a record has none.
func CRMTable(records []model.Record, now time.Time) Table {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = CRMRow(rec, now)
	}
	return Table{Header: model.CRMColumns, Rows: rows}
}

// ISPTable renders records in ISP column order.
func ISPTable(records []model.Record) Table {
	header := make([]string, len(model.ISPColumns))
	for i, c := range model.ISPColumns {
		header[i] = c.Header
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = ISPRow(rec)
	}
	return Table{Header: header, Rows: rows}
}

// WriteCRM writes records as the full CRM CSV at path.
func WriteCRM(path string, records []model.Record) error {
	return WriteCSV(path, CRMTable(records, time.Now()))
}

// WriteISP writes records as the ISP lead CSV at path.
func WriteISP(path string, records []model.Record) error {
	return WriteCSV(path, ISPTable(records))
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "export: create output dir")
	}
	return nil
}

// WriteCSV writes t as UTF-8 CSV, creating parent directories as needed.
func WriteCSV(path string, t Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "export: write header")
	}
	if err := w.WriteAll(t.Rows); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "export: write rows")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "export: close file")
	}
	return nil
}

// CRMRow renders one record in CRMColumns order.
func CRMRow(rec model.Record, now time.Time) []string {
	row := make([]string, len(model.CRMColumns))
	for i, col := range model.CRMColumns {
		v := rec.Str(col)
		if v == "" {
			switch col {
			case "collection_date":
				v = now.Format(time.DateOnly)
			case "last_updated":
				v = now.Format(time.DateTime)
			case "verification_status":
				v = VerificationAuto
			default:
				if alt, ok := crmFallbacks[col]; ok {
					v = rec.Str(alt)
				}
			}
		}
		row[i] = cleanValue(col, v)
	}
	return row
}

// cleanValue standardizes a CRM cell by column kind. Checks run in order, so
// a column named like an email is never treated as a URL.
func cleanValue(col, v string) string {
	v = strings.TrimSpace(v)
	if v == "None" {
		v = ""
	}
	switch {
	case strings.Contains(col, "email"):
		if strings.Contains(v, "@") && strings.Contains(v, ".") {
			return strings.ToLower(v)
		}
	case strings.Contains(col, "phone"):
		if v != "" {
			return validate.NormalizePhone(v)
		}
	case strings.Contains(col, "website") || strings.Contains(col, "url"):
		if v != "" && v != validate.InvalidURL && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return "https://" + v
		}
	case strings.HasSuffix(col, "_score"):
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "0"
		}
		return strconv.Itoa(max(0, min(scoreCeiling(col), int(f))))
	}
	if v == "" {
		return model.NotFound
	}
	return v
}

// scoreCeiling is the top of a score column's range. Confidence and
// completeness are percentages; the other scores run 0 to 10.
func scoreCeiling(col string) int {
	switch col {
	case model.FieldConfidenceScore, model.FieldCompleteness:
		return 100
	}
	return 10
}

// ISPRow renders one record in ISP column order. Scores default to 0 and
// flags are joined with "; ".
func ISPRow(rec model.Record) []string {
	row := make([]string, len(model.ISPColumns))
	for i, c := range model.ISPColumns {
		switch c.Field {
		case model.FieldQualityScore, model.FieldConfidenceScore:
			if rec.Has(c.Field) {
				row[i] = strconv.FormatFloat(rec.Float(c.Field), 'f', -1, 64)
			} else {
				row[i] = "0"
			}
		case model.FieldValidationFlags:
			if flags := rec.Flags(); len(flags) > 0 {
				row[i] = strings.Join(flags, "; ")
			} else {
				row[i] = model.NotFound
			}
		default:
			if v := rec.Str(c.Field); v != "" {
				row[i] = v
			} else {
				row[i] = model.NotFound
			}
		}
	}
	return row
}
