package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead is the subset of the Salesforce Lead object the export reads back.
type Lead struct {
	ID      string `json:"Id" salesforce:"Id"`
	Company string `json:"Company" salesforce:"Company"`
	Phone   string `json:"Phone" salesforce:"Phone"`
	Website string `json:"Website" salesforce:"Website"`
}

// FindLeadsByCompany returns existing Leads whose Company is one of names.
func FindLeadsByCompany(ctx context.Context, c Client, names []string) ([]Lead, error) {
	if len(names) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + escapeSoql(n) + "'"
	}
	soql := fmt.Sprintf(
		"SELECT Id, Company, Phone, Website FROM Lead WHERE Company IN (%s)",
		strings.Join(quoted, ", "),
	)

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, "sf: find leads by company")
	}
	return leads, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
