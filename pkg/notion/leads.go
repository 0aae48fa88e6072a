package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// LeadPage is one lead row in the Notion lead database. Empty fields are
// left off the page.
type LeadPage struct {
	Name        string
	Website     string
	Phone       string
	Email       string
	Address     string
	Industry    string
	NAICSCode   string
	Status      string
	Source      string
	QualityRank float64
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
		},
	}
}

// Properties converts the lead into Notion page properties. Name becomes the
// title property.
func (l LeadPage) Properties() notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: l.Name}},
			},
		},
		"Quality": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: l.QualityRank,
		},
	}
	if l.Website != "" {
		props["URL"] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: normalizeURL(l.Website)}
	}
	if l.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{Type: notionapi.PropertyTypePhoneNumber, PhoneNumber: l.Phone}
	}
	if l.Email != "" {
		props["Email"] = notionapi.EmailProperty{Type: notionapi.PropertyTypeEmail, Email: l.Email}
	}
	if l.Status != "" {
		props["Status"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: l.Status},
		}
	}
	for name, v := range map[string]string{
		"Address":  l.Address,
		"Industry": l.Industry,
		"NAICS":    l.NAICSCode,
		"Source":   l.Source,
	} {
		if v != "" {
			props[name] = richText(v)
		}
	}
	return props
}

// normalizeURL ensures a domain has an https:// scheme prefix.
func normalizeURL(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, "://") {
		return "https://" + domain
	}
	return domain
}

// CreateLeadPages creates one page per lead in dbID and returns how many were
// created before the first failure.
func CreateLeadPages(ctx context.Context, c Client, dbID string, leads []LeadPage) (int, error) {
	created := 0
	for _, l := range leads {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "notion: create lead pages cancelled")
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: l.Properties(),
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return created, eris.Wrapf(err, "notion: create lead page %q", l.Name)
		}
		created++
	}
	return created, nil
}
