package collect

import (
	"bytes"
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
)

const (
	maxAboutPages   = 3
	maxContactPages = 2
	maxEmails       = 5
)

const personName = `([A-Z][A-Za-z'-]+ [A-Z][A-Za-z'-]+)`

func rolePattern(titles ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i:` + strings.Join(titles, "|") + `)[:\s,-]+` + personName)
}

type rolePatterns struct {
	field    string
	patterns []*regexp.Regexp
}

// homepageRoles are searched on the landing page. Any top title counts as
// the chief executive there.
var homepageRoles = []rolePatterns{
	{model.FieldCEOName, []*regexp.Regexp{
		rolePattern(`CEO`, `Chief Executive Officer`),
		rolePattern(`President`),
		rolePattern(`Founder`),
	}},
}

var aboutRoles = []rolePatterns{
	{model.FieldCEOName, []*regexp.Regexp{rolePattern(`CEO`, `Chief Executive Officer`)}},
	{model.FieldPresidentName, []*regexp.Regexp{rolePattern(`President`)}},
	{model.FieldCFOName, []*regexp.Regexp{rolePattern(`CFO`, `Chief Financial Officer`)}},
	{model.FieldCTOName, []*regexp.Regexp{rolePattern(`CTO`, `Chief Technology Officer`)}},
	{model.FieldSalesDirector, []*regexp.Regexp{rolePattern(`VP Sales`, `VP of Sales`, `Sales Director`, `Director of Sales`)}},
	{model.FieldMarketingDirector, []*regexp.Regexp{rolePattern(`VP Marketing`, `VP of Marketing`, `Marketing Director`, `Director of Marketing`)}},
}

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	spamDomains = []string{"example.com", "test.com", "gmail.com", "yahoo.com", "hotmail.com"}

	aboutHints   = []string{"about", "team", "leadership", "management", "company", "who-we-are", "our-team", "meet-the-team", "staff"}
	contactHints = []string{"contact", "reach-us", "get-in-touch"}

	// mailbox prefixes routed to specific email fields, in preference order
	mailboxes = []struct {
		field    string
		prefixes []string
	}{
		{model.FieldSalesEmail, []string{"sales", "info"}},
		{model.FieldSupportEmail, []string{"support", "help"}},
		{model.FieldGeneralEmail, []string{"contact", "hello"}},
	}
)

// ContactEnricher looks up leadership names and mailboxes on a company's
// website. It only fills fields that are still empty.
type ContactEnricher struct {
	fetcher fetcher.Fetcher
}

// NewContactEnricher creates an enricher that fetches pages through f.
func NewContactEnricher(f fetcher.Fetcher) *ContactEnricher {
	return &ContactEnricher{fetcher: f}
}

type page struct {
	url  *url.URL
	doc  *goquery.Document
	text string
}

func (e *ContactEnricher) load(ctx context.Context, rawURL string) (*page, error) {
	body, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()
	u, _ := url.Parse(rawURL)
	return &page{url: u, doc: doc, text: clean(doc.Text())}, nil
}

// Enrich returns a copy of rec with contact fields filled from its website.
// Fetch failures are logged; the record comes back with whatever was found.
func (e *ContactEnricher) Enrich(ctx context.Context, rec model.Record) model.Record {
	out := rec.Clone()
	site := websiteURL(rec.Str(model.FieldWebsite))
	if site == "" {
		return out
	}
	log := zap.L().With(zap.String("business", rec.Name()), zap.String("website", site))

	home, err := e.load(ctx, site)
	if err != nil {
		log.Debug("collect: homepage fetch failed", zap.Error(err))
		return out
	}

	applyRoles(out, home.text, homepageRoles)
	emails := extractEmails(home.text)
	if len(emails) > 0 {
		out.Upgrade(model.FieldGeneralEmail, emails[0])
		if len(emails) > 1 {
			out.Upgrade(model.FieldAdditionalEmails, strings.Join(emails[1:], "; "))
		}
	}
	guessCEOEmail(out, home.text, home.url)

	for _, link := range findLinks(home, aboutHints, maxAboutPages) {
		if ctx.Err() != nil {
			return out
		}
		p, err := e.load(ctx, link)
		if err != nil {
			log.Debug("collect: about page fetch failed", zap.String("url", link), zap.Error(err))
			continue
		}
		if applyRoles(out, p.text, aboutRoles) > 0 {
			break
		}
	}

	for _, link := range findLinks(home, contactHints, maxContactPages) {
		if ctx.Err() != nil {
			return out
		}
		p, err := e.load(ctx, link)
		if err != nil {
			log.Debug("collect: contact page fetch failed", zap.String("url", link), zap.Error(err))
			continue
		}
		applyMailboxes(out, p.text)
	}

	guessCEOEmail(out, home.text, home.url)
	return out
}

func websiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.String()
}

// applyRoles fills role fields from text and reports how many it wrote.
func applyRoles(rec model.Record, text string, roles []rolePatterns) int {
	n := 0
	for _, role := range roles {
		for _, re := range role.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if rec.Upgrade(role.field, normalizePersonName(m[1])) {
				n++
			}
			break
		}
	}
	return n
}

// normalizePersonName title-cases names printed in all capitals. A Caser
// keeps state between calls, so each call builds its own.
func normalizePersonName(name string) string {
	name = clean(name)
	if name == strings.ToUpper(name) {
		return cases.Title(language.English).String(strings.ToLower(name))
	}
	return name
}

// extractEmails returns up to five distinct business addresses.
func extractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailRe.FindAllString(text, -1) {
		email := strings.ToLower(m)
		if seen[email] || isSpamEmail(email) {
			continue
		}
		seen[email] = true
		out = append(out, email)
		if len(out) == maxEmails {
			break
		}
	}
	return out
}

func isSpamEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return true
	}
	domain := email[at+1:]
	for _, d := range spamDomains {
		if strings.Contains(domain, d) {
			return true
		}
	}
	return false
}

func applyMailboxes(rec model.Record, text string) {
	emails := extractEmails(text)
	for _, mb := range mailboxes {
		if rec.Has(mb.field) {
			continue
		}
	prefixes:
		for _, prefix := range mb.prefixes {
			for _, email := range emails {
				if strings.HasPrefix(email, prefix+"@") {
					rec.Upgrade(mb.field, email)
					break prefixes
				}
			}
		}
	}
}

// guessCEOEmail fills ceo_email once a CEO name is known: first an address on
// the page that matches the name or a ceo@/president@ mailbox, then the
// first.last@ pattern at the site's domain.
func guessCEOEmail(rec model.Record, text string, site *url.URL) {
	if rec.Has(model.FieldCEOEmail) || !rec.Has(model.FieldCEOName) {
		return
	}
	parts := strings.Fields(strings.ToLower(rec.Str(model.FieldCEOName)))
	if len(parts) < 2 {
		return
	}
	first, last := parts[0], parts[len(parts)-1]

	emails := extractEmails(text)
	for _, prefix := range []string{first + "." + last, first, "ceo", "president"} {
		for _, email := range emails {
			if strings.HasPrefix(email, prefix+"@") {
				rec.Upgrade(model.FieldCEOEmail, email)
				return
			}
		}
	}

	if site == nil {
		return
	}
	domain := strings.TrimPrefix(strings.ToLower(site.Hostname()), "www.")
	if !strings.Contains(domain, ".") || net.ParseIP(domain) != nil {
		return
	}
	rec.Upgrade(model.FieldCEOEmail, first+"."+last+"@"+domain)
}

// findLinks returns up to limit distinct absolute same-site links whose href
// or anchor text contains one of the hints.
func findLinks(p *page, hints []string, limit int) []string {
	var out []string
	seen := map[string]bool{p.url.String(): true}
	p.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		lowerHref := strings.ToLower(href)
		label := strings.ToLower(a.Text())
		if strings.HasPrefix(lowerHref, "mailto:") || strings.HasPrefix(lowerHref, "tel:") {
			return true
		}
		matched := false
		for _, h := range hints {
			if strings.Contains(lowerHref, h) || strings.Contains(label, h) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := p.url.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Host != p.url.Host {
			return true
		}
		if s := abs.String(); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
		return len(out) < limit
	})
	return out
}
