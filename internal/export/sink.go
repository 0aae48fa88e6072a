package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// Sink pushes finished leads to an external system and reports how many
// were accepted.
type Sink interface {
	Name() string
	Push(ctx context.Context, records []model.Record) (int, error)
}

// leadSourcePrefix tags records created by this tool in the target system.
const leadSourcePrefix = "leadgen"

// SalesforceSink creates Salesforce Leads in 200-record collections. Leads
// whose company already exists are skipped.
type SalesforceSink struct {
	client sfpkg.Client
}

// NewSalesforceSink creates a Salesforce sink.
func NewSalesforceSink(c sfpkg.Client) *SalesforceSink {
	return &SalesforceSink{client: c}
}

// Name implements Sink.
func (s *SalesforceSink) Name() string { return "salesforce" }

// Push implements Sink.
func (s *SalesforceSink) Push(ctx context.Context, records []model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name())
	}
	existing, err := sfpkg.FindLeadsByCompany(ctx, s.client, names)
	if err != nil {
		return 0, eris.Wrap(err, "export: salesforce lookup")
	}
	seen := make(map[string]bool, len(existing))
	for _, l := range existing {
		seen[strings.ToLower(l.Company)] = true
	}

	var leads []map[string]any
	for _, rec := range records {
		if seen[strings.ToLower(rec.Name())] {
			continue
		}
		seen[strings.ToLower(rec.Name())] = true
		leads = append(leads, SalesforceLead(rec))
	}

	results, err := sfpkg.BulkInsert(ctx, s.client, "Lead", leads)
	created := 0
	for i, r := range results {
		if r.Success {
			created++
			continue
		}
		zap.L().Warn("export: salesforce rejected lead",
			zap.Any("company", leads[i]["Company"]),
			zap.Strings("errors", r.Errors),
		)
	}
	if err != nil {
		return created, eris.Wrap(err, "export: salesforce insert")
	}

	zap.L().Info("export: salesforce push complete",
		zap.Int("created", created),
		zap.Int("skipped_existing", len(records)-len(leads)),
	)
	return created, nil
}

// SalesforceLead maps a record onto Lead fields. LastName is required by
// Salesforce, so leads without a known contact use the placeholder "Unknown".
func SalesforceLead(rec model.Record) map[string]any {
	lead := map[string]any{
		"Company":  rec.Name(),
		"LastName": "Unknown",
		"Status":   "Open - Not Contacted",
	}
	if contact := strings.Fields(rec.Str(model.FieldCEOName)); len(contact) >= 2 {
		lead["FirstName"] = strings.Join(contact[:len(contact)-1], " ")
		lead["LastName"] = contact[len(contact)-1]
		lead["Title"] = "CEO"
	}

	set := func(key, value string) {
		if value != "" {
			lead[key] = value
		}
	}
	set("Phone", rec.Str(model.FieldPhone))
	set("Website", rec.Str(model.FieldWebsite))
	set("Description", rec.Str(model.FieldBusinessDescription))
	set("Email", emailOf(rec, model.FieldCEOEmail, model.FieldGeneralEmail, model.FieldSalesEmail))
	set("Street", firstOf(rec, model.FieldHQAddress, model.FieldAddress))
	set("City", rec.Str(model.FieldHQCity))
	set("State", rec.Str(model.FieldHQState))
	set("PostalCode", rec.Str(model.FieldHQZip))
	set("Industry", firstOf(rec, model.FieldIndustryPrimary, model.FieldIndustryCategory, model.FieldIndustry))
	if src := rec.Str(model.FieldSource); src != "" {
		lead["LeadSource"] = leadSourcePrefix + ":" + src
	}
	return lead
}

func firstOf(rec model.Record, fields ...string) string {
	for _, f := range fields {
		if v := rec.Str(f); v != "" {
			return v
		}
	}
	return ""
}

// emailOf skips fields holding validation markers instead of addresses.
func emailOf(rec model.Record, fields ...string) string {
	for _, f := range fields {
		if v := rec.Str(f); strings.Contains(v, "@") {
			return v
		}
	}
	return ""
}

// NotionSink creates one page per lead in a Notion database, skipping
// companies already present.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a Notion sink for the lead database dbID.
func NewNotionSink(c notion.Client, dbID string) *NotionSink {
	return &NotionSink{client: c, dbID: dbID}
}

// Name implements Sink.
func (s *NotionSink) Name() string { return "notion" }

// Push implements Sink.
func (s *NotionSink) Push(ctx context.Context, records []model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	existing, err := notion.ExistingTitles(ctx, s.client, s.dbID)
	if err != nil {
		return 0, eris.Wrap(err, "export: notion lookup")
	}

	var pages []notion.LeadPage
	for _, rec := range records {
		key := strings.ToLower(rec.Name())
		if existing[key] {
			continue
		}
		existing[key] = true
		pages = append(pages, NotionLead(rec))
	}

	n, err := notion.CreateLeadPages(ctx, s.client, s.dbID, pages)
	if err != nil {
		return n, eris.Wrap(err, "export: notion push")
	}
	zap.L().Info("export: notion push complete",
		zap.Int("created", n),
		zap.Int("skipped_existing", len(records)-len(pages)),
	)
	return n, nil
}

// NotionLead maps a record onto a Notion lead page.
func NotionLead(rec model.Record) notion.LeadPage {
	rank := rec.Float(model.FieldDataQualityScore)
	if !rec.Has(model.FieldDataQualityScore) {
		rank = rec.Float(model.FieldQualityScore) * 10
	}
	return notion.LeadPage{
		Name:        rec.Name(),
		Website:     rec.Str(model.FieldWebsite),
		Phone:       rec.Str(model.FieldPhone),
		Email:       emailOf(rec, model.FieldGeneralEmail, model.FieldSalesEmail, model.FieldCEOEmail),
		Address:     firstOf(rec, model.FieldHQAddress, model.FieldAddress),
		Industry:    firstOf(rec, model.FieldIndustryDescription, model.FieldIndustryPrimary, model.FieldIndustry),
		NAICSCode:   rec.Str(model.FieldNAICSCode),
		Status:      rec.Str(model.FieldValidationStatus),
		Source:      rec.Str(model.FieldSource),
		QualityRank: rank,
	}
}
