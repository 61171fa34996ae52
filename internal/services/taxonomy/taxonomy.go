// Package taxonomy loads the locked canonical key taxonomy. A Taxonomy is
// loaded once at startup and passed read-only into every engine.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/creditcore/internal/models"
)

// MaxKeys is the upper bound on taxonomy size
const MaxKeys = 60

//go:embed taxonomy.toml
var defaultTaxonomy []byte

// Entry is one canonical key and the statement it belongs to
type Entry struct {
	Key       string               `toml:"key" validate:"required"`
	Statement models.StatementType `toml:"statement" validate:"required,oneof=SFP SCI CF NOTE"`
	Label     string               `toml:"label"`
}

type file struct {
	Version string  `toml:"version" validate:"required"`
	Keys    []Entry `toml:"keys" validate:"required,min=1,max=60,dive"`
}

// Taxonomy is an immutable set of canonical keys
type Taxonomy struct {
	version string
	entries []Entry
	index   map[string]Entry
}

// Default returns the embedded taxonomy
func Default() (*Taxonomy, error) {
	return Parse(defaultTaxonomy)
}

// Load reads a taxonomy TOML file. An empty path loads the embedded default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "taxonomy.path", Reason: fmt.Sprintf("failed to read %s: %v", path, err)}
	}
	return Parse(data)
}

// Parse decodes and validates taxonomy TOML. Any defect is a ConfigurationError:
// the pipeline must not run on a partial taxonomy.
func Parse(data []byte) (*Taxonomy, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, models.NewConfigurationError("taxonomy", "failed to parse: %v", err)
	}

	validate := validator.New()
	if err := validate.Struct(f); err != nil {
		return nil, models.NewConfigurationError("taxonomy", "invalid: %v", err)
	}

	return New(f.Version, f.Keys)
}

// New builds a taxonomy from entries, rejecting duplicates and oversize lists
func New(version string, entries []Entry) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, models.NewConfigurationError("taxonomy", "no canonical keys")
	}
	if len(entries) > MaxKeys {
		return nil, models.NewConfigurationError("taxonomy", "%d keys exceeds the limit of %d", len(entries), MaxKeys)
	}

	t := &Taxonomy{
		version: version,
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		e.Key = strings.TrimSpace(e.Key)
		if e.Key == "" {
			return nil, models.NewConfigurationError("taxonomy", "empty canonical key")
		}
		if !e.Statement.Valid() {
			return nil, models.NewConfigurationError("taxonomy", "key %s has unknown statement type %q", e.Key, e.Statement)
		}
		if _, dup := t.index[e.Key]; dup {
			return nil, models.NewConfigurationError("taxonomy", "duplicate canonical key %s", e.Key)
		}
		t.index[e.Key] = e
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Version returns the taxonomy version string
func (t *Taxonomy) Version() string {
	return t.version
}

// Len returns the number of canonical keys
func (t *Taxonomy) Len() int {
	return len(t.entries)
}

// Contains reports whether key is a canonical key
func (t *Taxonomy) Contains(key string) bool {
	_, ok := t.index[key]
	return ok
}

// StatementType returns the statement a key belongs to
func (t *Taxonomy) StatementType(key string) (models.StatementType, bool) {
	e, ok := t.index[key]
	return e.Statement, ok
}

// Keys returns all canonical keys in declaration order
func (t *Taxonomy) Keys() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Key
	}
	return out
}

// Admit splits facts into those whose key is in the taxonomy and the sorted,
// de-duplicated list of rejected keys
func (t *Taxonomy) Admit(facts []models.Fact) ([]models.Fact, []string) {
	admitted := make([]models.Fact, 0, len(facts))
	rejectedSet := make(map[string]bool)

	for _, f := range facts {
		if err := t.Check(f.CanonicalKey); errors.Is(err, models.ErrUnknownCanonicalKey) {
			rejectedSet[f.CanonicalKey] = true
			continue
		}
		admitted = append(admitted, f)
	}

	rejected := make([]string, 0, len(rejectedSet))
	for k := range rejectedSet {
		rejected = append(rejected, k)
	}
	sort.Strings(rejected)
	return admitted, rejected
}

// Check returns ErrUnknownCanonicalKey wrapped with the key when it is not admitted
func (t *Taxonomy) Check(key string) error {
	if !t.Contains(key) {
		return fmt.Errorf("%w: %s", models.ErrUnknownCanonicalKey, key)
	}
	return nil
}
