// Package catalog loads the indicator catalog: the ordered, immutable set of
// indicator specifications the pipeline attempts to resolve for each report.
// The catalog is configuration data, not code — it ships as an embedded YAML
// document and can be overridden with an external file.
package catalog

import (
	_ "embed"
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/csrd-cli/internal/model"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is an ordered, indexed collection of indicator specs.
type Catalog struct {
	specs []model.IndicatorSpec
	byID  map[string]*model.IndicatorSpec
}

type catalogFile struct {
	Indicators []model.IndicatorSpec `yaml:"indicators"`
}

// New builds a Catalog from specs, validating uniqueness and pre-compiling
// table patterns case-insensitively.
func New(specs []model.IndicatorSpec) (*Catalog, error) {
	c := &Catalog{
		specs: specs,
		byID:  make(map[string]*model.IndicatorSpec, len(specs)),
	}
	for i := range c.specs {
		s := &c.specs[i]
		if s.ID == "" {
			return nil, eris.Errorf("catalog: indicator %d has no id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, eris.Errorf("catalog: duplicate indicator id %s", s.ID)
		}
		s.Patterns = make([]*regexp.Regexp, 0, len(s.TablePatterns))
		for _, p := range s.TablePatterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: %s: compile pattern %q", s.ID, p)
			}
			s.Patterns = append(s.Patterns, re)
		}
		c.byID[s.ID] = s
	}
	return c, nil
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalogYAML)
}

// LoadFile loads a catalog from an external YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal yaml")
	}
	if len(f.Indicators) == 0 {
		return nil, eris.New("catalog: no indicators defined")
	}
	return New(f.Indicators)
}

// Specs returns all indicator specs in catalog order. The returned slice
// must not be mutated.
func (c *Catalog) Specs() []model.IndicatorSpec {
	return c.specs
}

// ByID returns the spec for the given indicator id, or nil if unknown.
func (c *Catalog) ByID(id string) *model.IndicatorSpec {
	return c.byID[id]
}

// Len returns the number of indicators in the catalog.
func (c *Catalog) Len() int {
	return len(c.specs)
}
