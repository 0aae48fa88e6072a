package collect

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// DefaultDirectoryURL is the Yellow Pages search endpoint.
const DefaultDirectoryURL = "https://www.yellowpages.com/search"

const (
	defaultDirectoryLimit = 20
	maxDirectoryPages     = 5
)

// Selector fallbacks, tried in order until one yields text.
var (
	ypName        = []string{"a.business-name", "h3.n", "h2.n", "span.business-name"}
	ypAddress     = []string{"p.adr", "span.adr", "div.adr", "div.street-address"}
	ypPhone       = []string{"div.phones", "span.phone", "a.phone"}
	ypWebsite     = []string{"a.track-visit-website", "a[data-track=visit-website]", "a.website"}
	ypDescription = []string{"p.snippet", "div.snippet", "span.categories", "div.categories"}
	ypCategories  = []string{"div.categories", "span.categories"}
)

// YellowPagesOptions configures the directory source.
type YellowPagesOptions struct {
	BaseURL string
	// Limit caps the listings returned per search. Default 20.
	Limit int
	// ISPOnly keeps only listings that mention internet service.
	ISPOnly bool
}

// YellowPages scrapes search result listings.
type YellowPages struct {
	fetcher fetcher.Fetcher
	opts    YellowPagesOptions
	now     func() time.Time
}

// NewYellowPages creates a directory source.
func NewYellowPages(f fetcher.Fetcher, opts YellowPagesOptions) *YellowPages {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultDirectoryURL
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultDirectoryLimit
	}
	return &YellowPages{fetcher: f, opts: opts, now: time.Now}
}

// Name implements Source.
func (y *YellowPages) Name() string { return SourceYellowPages }

// SearchURL builds the results URL for one page (1-based).
func (y *YellowPages) SearchURL(query, location string, page int) string {
	v := url.Values{}
	v.Set("search_terms", query)
	v.Set("geo_location_terms", location)
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return y.opts.BaseURL + "?" + v.Encode()
}

// Collect implements Source. Pages are read until the limit is reached or a
// page yields no listings.
func (y *YellowPages) Collect(ctx context.Context, params model.SearchParams) ([]model.Record, error) {
	limit := y.opts.Limit
	if params.MaxResults > 0 && params.MaxResults < limit {
		limit = params.MaxResults
	}
	query := params.Query
	if query == "" {
		query = params.Industry
	}
	if query == "" {
		return nil, eris.New("collect: directory search needs a query")
	}

	var out []model.Record
	for page := 1; page <= maxDirectoryPages && len(out) < limit; page++ {
		pageURL := y.SearchURL(query, params.Location, page)
		body, err := y.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if len(out) > 0 {
				zap.L().Warn("collect: directory page failed, keeping earlier pages",
					zap.Int("page", page), zap.Error(err))
				break
			}
			return nil, eris.Wrap(err, "collect: fetch directory page")
		}

		listings, err := ParseListings(body)
		if err != nil {
			return out, err
		}
		if len(listings) == 0 {
			break
		}
		now := y.now()
		for _, rec := range listings {
			if y.opts.ISPOnly && !classify.IsISP(
				rec.Str(model.FieldBusinessName),
				rec.Str(model.FieldBusinessDescription),
				rec.Str(model.FieldCategories),
			) {
				continue
			}
			out = append(out, stamp(rec, SourceYellowPages, now))
			if len(out) >= limit {
				break
			}
		}
	}

	zap.L().Info("collect: directory search complete",
		zap.String("query", query),
		zap.String("location", params.Location),
		zap.Int("listings", len(out)),
	)
	return out, nil
}

// ParseListings extracts one record per div.result block.
func ParseListings(body []byte) ([]model.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "collect: parse directory html")
	}

	var out []model.Record
	doc.Find("div.result").Each(func(_ int, s *goquery.Selection) {
		name := firstText(s, ypName)
		if name == "" {
			return
		}
		rec := model.Record{model.FieldBusinessName: name}
		rec.Upgrade(model.FieldAddress, addressText(s))
		rec.Upgrade(model.FieldPhone, firstText(s, ypPhone))
		rec.Upgrade(model.FieldWebsite, firstAttr(s, ypWebsite, "href"))
		rec.Upgrade(model.FieldBusinessDescription, firstText(s, ypDescription))
		rec.Upgrade(model.FieldCategories, categoriesText(s))
		out = append(out, rec)
	})
	return out, nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := clean(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := s.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// addressText joins street and locality spans with a comma when the listing
// splits them.
func addressText(s *goquery.Selection) string {
	street := clean(s.Find(".street-address").First().Text())
	locality := clean(s.Find(".locality").First().Text())
	if street != "" && locality != "" {
		return street + ", " + locality
	}
	return firstText(s, ypAddress)
}

func categoriesText(s *goquery.Selection) string {
	for _, sel := range ypCategories {
		var cats []string
		s.Find(sel).First().Find("a").Each(func(_ int, a *goquery.Selection) {
			if t := clean(a.Text()); t != "" {
				cats = append(cats, t)
			}
		})
		if len(cats) > 0 {
			return strings.Join(cats, ", ")
		}
	}
	return ""
}
