package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the Salesforce Collections API limit per request.
const maxBatchSize = 200

// BulkInsert splits records into batches of 200 and sends each through
// InsertCollection. Results are returned in input order; on error the
// results of the batches already sent are returned with it.
func BulkInsert(ctx context.Context, c Client, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var all []CollectionResult
	for start := 0; start < len(records); start += maxBatchSize {
		end := min(start+maxBatchSize, len(records))
		results, err := c.InsertCollection(ctx, sObjectName, records[start:end])
		if err != nil {
			return all, eris.Wrap(err, fmt.Sprintf("sf: bulk insert %s batch %d-%d", sObjectName, start, end))
		}
		all = append(all, results...)
	}
	return all, nil
}
