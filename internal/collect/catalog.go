package collect

import (
	"context"
	_ "embed"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogEntry struct {
	Name        string `yaml:"name"`
	Address     string `yaml:"address"`
	Phone       string `yaml:"phone"`
	Website     string `yaml:"website"`
	Description string `yaml:"description"`
	ServiceType string `yaml:"service_type"`
	Coverage    string `yaml:"coverage"`
}

type catalogState struct {
	Code    string                    `yaml:"code"`
	Name    string                    `yaml:"name"`
	Sources map[string][]catalogEntry `yaml:"sources"`
}

type catalogFile struct {
	States []catalogState `yaml:"states"`
}

var (
	catalogOnce sync.Once
	catalog     catalogFile
	catalogErr  error
)

func loadCatalog() (catalogFile, error) {
	catalogOnce.Do(func() {
		catalogErr = eris.Wrap(yaml.Unmarshal(catalogYAML, &catalog), "collect: parse provider catalog")
	})
	return catalog, catalogErr
}

// CatalogSource serves one list from the built-in provider catalog.
type CatalogSource struct {
	name string
	now  func() time.Time
}

// NewCatalogSource returns the catalog list named name (fcc_broadband_data
// or local_directories).
func NewCatalogSource(name string) (*CatalogSource, error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	for _, st := range c.States {
		if _, ok := st.Sources[name]; ok {
			return &CatalogSource{name: name, now: time.Now}, nil
		}
	}
	return nil, eris.Errorf("collect: unknown catalog source %q", name)
}

// CatalogSources returns every catalog list in a stable order.
func CatalogSources() ([]*CatalogSource, error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, st := range c.States {
		for n := range st.Sources {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	slices.Sort(names)

	out := make([]*CatalogSource, 0, len(names))
	for _, n := range names {
		out = append(out, &CatalogSource{name: n, now: time.Now})
	}
	return out, nil
}

// Name implements Source.
func (c *CatalogSource) Name() string { return c.name }

// Collect implements Source. Entries are returned for every state the
// location names; an empty location returns all states.
func (c *CatalogSource) Collect(_ context.Context, params model.SearchParams) ([]model.Record, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	now := c.now()
	var out []model.Record
	for _, st := range cat.States {
		if !locationMatches(params.Location, st) {
			continue
		}
		for _, e := range st.Sources[c.name] {
			rec := model.NewRecord(map[string]string{
				model.FieldBusinessName:        e.Name,
				model.FieldAddress:             e.Address,
				model.FieldPhone:               e.Phone,
				model.FieldWebsite:             e.Website,
				model.FieldBusinessDescription: e.Description,
				model.FieldServiceType:         e.ServiceType,
				model.FieldCoverage:            e.Coverage,
			})
			out = append(out, stamp(rec, c.name, now))
			if params.MaxResults > 0 && len(out) >= params.MaxResults {
				return out, nil
			}
		}
	}
	return out, nil
}

func locationMatches(location string, st catalogState) bool {
	location = strings.TrimSpace(location)
	if location == "" {
		return true
	}
	if strings.Contains(strings.ToLower(location), strings.ToLower(st.Name)) {
		return true
	}
	for _, tok := range strings.FieldsFunc(location, func(r rune) bool { return r == ',' || r == ' ' }) {
		if strings.EqualFold(tok, st.Code) {
			return true
		}
	}
	return false
}
