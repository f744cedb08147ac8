package variant

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var defaultFiles embed.FS

// DefaultName is the variant used when no file overrides the default.
const DefaultName = "ardri"

type catalogFile struct {
	Default  string          `yaml:"default"`
	Variants []Configuration `yaml:"variants"`
}

// Catalog maps variant names to starting layouts. It loads the embedded layouts and then
// applies overrides from a directory if provided.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]Configuration
	def    string
}

// New loads the embedded layouts and then applies *.yaml overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Configuration), def: DefaultName}
	if err := c.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	if _, ok := c.byName[c.def]; !ok {
		return nil, fmt.Errorf("default variant %q is not defined", c.def)
	}
	return c, nil
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the catalog of embedded layouts. The embedded file is static, so a parse
// failure is a build defect and panics.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := New("")
		if err != nil {
			panic(fmt.Sprintf("variant: embedded catalog: %v", err))
		}
		builtin = c
	})
	return builtin
}

// Lookup returns the configuration registered under exactly name. Unknown names resolve to
// the default variant and the returned Resolution says so.
func (c *Catalog) Lookup(name string) (Configuration, Resolution) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := Resolution{Requested: name, Resolved: name}
	cfg, ok := c.byName[name]
	if !ok {
		cfg = c.byName[c.def]
		res.Resolved = c.def
		res.FellBack = true
	}
	return cfg.clone(), res
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byName[name]
	return ok
}

// Names returns the registered variant names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns the name unknown lookups fall back to.
func (c *Catalog) Default() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.def
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, "variants.yaml")
	if err != nil {
		return fmt.Errorf("read embedded variants: %w", err)
	}
	f, err := parseFile(raw)
	if err != nil {
		return fmt.Errorf("parse embedded variants: %w", err)
	}
	c.apply(f)
	return nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read variant dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	// the same variant may not be overridden by two files
	seen := make(map[string]string)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		f, err := parseFile(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for _, v := range f.Variants {
			if prev, ok := seen[v.Name]; ok {
				return fmt.Errorf("duplicate variant %q in %s and %s", v.Name, prev, name)
			}
			seen[v.Name] = name
		}
		c.apply(f)
	}
	return nil
}

func (c *Catalog) apply(f *catalogFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range f.Variants {
		c.byName[v.Name] = v
	}
	if f.Default != "" {
		c.def = f.Default
	}
}

func parseFile(b []byte) (*catalogFile, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	f.Default = strings.ToLower(strings.TrimSpace(f.Default))
	for i := range f.Variants {
		v := &f.Variants[i]
		v.Name = strings.ToLower(strings.TrimSpace(v.Name))
		if v.Name == "" {
			return nil, fmt.Errorf("variant %d has no name", i)
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}
