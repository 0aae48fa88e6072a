package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
)

const homePage = `<html><head><script>var ceo = "CEO: Nobody Here";</script></head><body>
<nav>
  <a href="/about-us">About Us</a>
  <a href="/team#leaders">Our Team</a>
  <a href="https://facebook.com/about">Facebook</a>
  <a href="/contact">Contact</a>
  <a href="mailto:press@acmefiber.net">Email about us</a>
</nav>
<p>Founded 1998. CEO: JANE DOE leads our company.</p>
<p>Reach us at info@acmefiber.net or noreply@gmail.com or billing@acmefiber.net</p>
</body></html>`

const aboutPage = `<html><body>
<h2>Leadership</h2>
<p>President: John Smith</p>
<p>Chief Financial Officer - Mary Jones</p>
<p>VP of Sales: Bob Lee</p>
</body></html>`

const contactPage = `<html><body>
<p>Sales: sales@acmefiber.net</p>
<p>Support: help@acmefiber.net</p>
<p>Anything else: hello@acmefiber.net</p>
</body></html>`

func TestContactEnricher_Enrich(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{
		"https://acmefiber.net":          homePage,
		"https://acmefiber.net/about-us": aboutPage,
		"https://acmefiber.net/contact":  contactPage,
	}}
	rec := model.Record{
		model.FieldBusinessName: "Acme Fiber",
		model.FieldWebsite:      "acmefiber.net",
	}

	got := NewContactEnricher(f).Enrich(context.Background(), rec)

	assert.Equal(t, "Jane Doe", got.Str(model.FieldCEOName))
	assert.Equal(t, "jane.doe@acmefiber.net", got.Str(model.FieldCEOEmail))
	assert.Equal(t, "John Smith", got.Str(model.FieldPresidentName))
	assert.Equal(t, "Mary Jones", got.Str(model.FieldCFOName))
	assert.Equal(t, "Bob Lee", got.Str(model.FieldSalesDirector))
	assert.False(t, got.Has(model.FieldCTOName))

	assert.Equal(t, "info@acmefiber.net", got.Str(model.FieldGeneralEmail))
	assert.Equal(t, "billing@acmefiber.net", got.Str(model.FieldAdditionalEmails))
	assert.Equal(t, "sales@acmefiber.net", got.Str(model.FieldSalesEmail))
	assert.Equal(t, "help@acmefiber.net", got.Str(model.FieldSupportEmail))

	// the first about page had leaders, so the team page is never fetched
	assert.Equal(t, []string{
		"https://acmefiber.net",
		"https://acmefiber.net/about-us",
		"https://acmefiber.net/contact",
	}, f.requested())

	assert.False(t, rec.Has(model.FieldCEOName), "input record is not modified")
}

func TestContactEnricher_KeepsExistingFields(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{
		"https://acmefiber.net": homePage,
	}}
	rec := model.Record{
		model.FieldWebsite:      "https://acmefiber.net",
		model.FieldCEOName:      "Pat Quinn",
		model.FieldGeneralEmail: "office@acmefiber.net",
	}

	got := NewContactEnricher(f).Enrich(context.Background(), rec)
	assert.Equal(t, "Pat Quinn", got.Str(model.FieldCEOName))
	assert.Equal(t, "office@acmefiber.net", got.Str(model.FieldGeneralEmail))
	assert.Equal(t, "pat.quinn@acmefiber.net", got.Str(model.FieldCEOEmail))
}

func TestContactEnricher_CEOEmailOnPage(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{
		"https://www.annco.com": `<p>Chief Executive Officer, Ann Lee. Write to ann.lee@annco.com</p>`,
	}}
	rec := model.Record{model.FieldWebsite: "https://www.annco.com"}

	got := NewContactEnricher(f).Enrich(context.Background(), rec)
	assert.Equal(t, "Ann Lee", got.Str(model.FieldCEOName))
	assert.Equal(t, "ann.lee@annco.com", got.Str(model.FieldCEOEmail))
}

func TestContactEnricher_NoWebsite(t *testing.T) {
	f := &pageFetcher{}
	rec := model.Record{model.FieldBusinessName: "Acme", model.FieldWebsite: model.NotFound}

	got := NewContactEnricher(f).Enrich(context.Background(), rec)
	assert.Equal(t, rec, got)
	assert.Empty(t, f.requested())
}

func TestContactEnricher_HomepageFails(t *testing.T) {
	f := &pageFetcher{errs: map[string]error{"https://acme.test": errBoom}}
	rec := model.Record{model.FieldBusinessName: "Acme", model.FieldWebsite: "https://acme.test"}

	got := NewContactEnricher(f).Enrich(context.Background(), rec)
	assert.Equal(t, rec, got)
}

func TestContactEnricher_OverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<a href="/contact-us">Contact</a><p>Founder: Lee Park</p>`))
	})
	mux.HandleFunc("/contact-us", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<p>support@parknet.com</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RateLimit: time.Millisecond})
	got := NewContactEnricher(f).Enrich(context.Background(), model.Record{model.FieldWebsite: srv.URL})

	assert.Equal(t, "Lee Park", got.Str(model.FieldCEOName))
	assert.Equal(t, "support@parknet.com", got.Str(model.FieldSupportEmail))
}

func TestExtractEmails(t *testing.T) {
	text := "a@acme.com A@ACME.com b@example.com c@gmail.com d@acme.com e@acme.com f@acme.com g@acme.com h@acme.com"
	assert.Equal(t, []string{"a@acme.com", "d@acme.com", "e@acme.com", "f@acme.com", "g@acme.com"}, extractEmails(text))
	assert.Empty(t, extractEmails("no addresses here"))
}

func TestNormalizePersonName(t *testing.T) {
	assert.Equal(t, "Jane Doe", normalizePersonName("JANE  DOE"))
	assert.Equal(t, "Mary McAdams", normalizePersonName("Mary McAdams"))
}

func TestNormalizePersonName_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	got := make([]string, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = normalizePersonName("JOHN O'REILLY-SMITH")
		}()
	}
	wg.Wait()

	want := normalizePersonName("JOHN O'REILLY-SMITH")
	assert.True(t, strings.HasPrefix(want, "John O"))
	for _, name := range got {
		assert.Equal(t, want, name)
	}
}

func TestWebsiteURL(t *testing.T) {
	assert.Equal(t, "https://acme.com", websiteURL("acme.com"))
	assert.Equal(t, "http://acme.com/x", websiteURL(" http://acme.com/x "))
	assert.Equal(t, "", websiteURL(""))
	require.Equal(t, "", websiteURL("https://"))
}
