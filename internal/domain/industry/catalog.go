package industry

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed industries.yaml
var defaultCatalog []byte

// Industry is one recognized sector label.
type Industry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Catalog resolves user supplied industry labels to their canonical name.
type Catalog struct {
	byKey map[string]string
	names []string
}

type catalogFile struct {
	Industries []Industry `yaml:"industries"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog file, falling back to the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "industry: read %s", path)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "industry: parse catalog")
	}
	if len(f.Industries) == 0 {
		return nil, eris.New("industry: catalog is empty")
	}

	c := &Catalog{byKey: make(map[string]string)}
	for _, ind := range f.Industries {
		name := strings.TrimSpace(ind.Name)
		if name == "" {
			return nil, eris.New("industry: entry without name")
		}
		if err := c.add(name, name); err != nil {
			return nil, err
		}
		for _, a := range ind.Aliases {
			if err := c.add(a, name); err != nil {
				return nil, err
			}
		}
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

func (c *Catalog) add(label, canonical string) error {
	key := normalize(label)
	if prev, ok := c.byKey[key]; ok && prev != canonical {
		return eris.Errorf("industry: label %q maps to both %s and %s", label, prev, canonical)
	}
	c.byKey[key] = canonical
	return nil
}

// Lookup returns the canonical name for label, matching case-insensitively.
func (c *Catalog) Lookup(label string) (string, bool) {
	name, ok := c.byKey[normalize(label)]
	return name, ok
}

// Names lists canonical names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
