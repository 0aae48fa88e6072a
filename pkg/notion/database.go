package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
// The next page is prefetched in a goroutine while the current one is
// appended.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "notion: query all")
	}

	var all []notionapi.Page

	newReq := func(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}
		return req
	}

	type prefetchResult struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	var prefetchCh <-chan prefetchResult

	for {
		var resp *notionapi.DatabaseQueryResponse
		var err error

		if prefetchCh != nil {
			result := <-prefetchCh
			resp, err = result.resp, result.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, newReq(""))
		}
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)
		if !resp.HasMore {
			break
		}

		next := newReq(resp.NextCursor)
		ch := make(chan prefetchResult, 1)
		prefetchCh = ch
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, next)
			ch <- prefetchResult{resp: r, err: e}
		}()
	}

	return all, nil
}

// ExistingTitles returns the lower-cased titles of every page in the
// database, used to skip leads that were pushed by an earlier run.
func ExistingTitles(ctx context.Context, c Client, dbID string) (map[string]bool, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: existing titles")
	}
	out := make(map[string]bool, len(pages))
	for _, p := range pages {
		if t := pageTitle(p); t != "" {
			out[strings.ToLower(t)] = true
		}
	}
	return out, nil
}

func pageTitle(p notionapi.Page) string {
	for _, prop := range p.Properties {
		var rich []notionapi.RichText
		switch t := prop.(type) {
		case *notionapi.TitleProperty:
			rich = t.Title
		case notionapi.TitleProperty:
			rich = t.Title
		default:
			continue
		}
		var b strings.Builder
		for _, r := range rich {
			switch {
			case r.PlainText != "":
				b.WriteString(r.PlainText)
			case r.Text != nil:
				b.WriteString(r.Text.Content)
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}
