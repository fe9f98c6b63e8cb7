package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed categories.json
var defaultMapping []byte

// Category is one row of the mapping: the native object id used by
// first-party products, the display name used by seller listings, and the
// legacy numeric id kept for older clients.
type Category struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	LegacyID string `json:"legacyId"`
}

type mappingFile struct {
	Version    string     `json:"version"`
	Categories []Category `json:"categories"`
}

// CategoryMapping reconciles the three category key schemes. It is immutable
// after loading and safe for concurrent use.
type CategoryMapping struct {
	version    string
	categories []Category
	byObjectID map[string]Category
	byName     map[string]Category
	byLegacyID map[string]Category
}

// LoadDefault returns the mapping compiled into the binary.
func LoadDefault() (*CategoryMapping, error) {
	return Parse(defaultMapping)
}

// Load reads the mapping from path, or the embedded default when path is empty.
func Load(path string) (*CategoryMapping, error) {
	if path == "" {
		return LoadDefault()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category mapping: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a mapping document. Every row must carry all
// three keys and no key may repeat across rows.
func Parse(data []byte) (*CategoryMapping, error) {
	var f mappingFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode category mapping: %w", err)
	}
	if f.Version == "" {
		return nil, fmt.Errorf("category mapping: version is required")
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("category mapping: no categories")
	}

	m := &CategoryMapping{
		version:    f.Version,
		byObjectID: make(map[string]Category, len(f.Categories)),
		byName:     make(map[string]Category, len(f.Categories)),
		byLegacyID: make(map[string]Category, len(f.Categories)),
	}
	for i, c := range f.Categories {
		c.ObjectID = strings.TrimSpace(c.ObjectID)
		c.Name = strings.TrimSpace(c.Name)
		c.LegacyID = strings.TrimSpace(c.LegacyID)
		if c.ObjectID == "" || c.Name == "" || c.LegacyID == "" {
			return nil, fmt.Errorf("category mapping: row %d has an empty key", i)
		}
		if _, dup := m.byObjectID[c.ObjectID]; dup {
			return nil, fmt.Errorf("category mapping: duplicate objectId %q", c.ObjectID)
		}
		nameKey := strings.ToLower(c.Name)
		if _, dup := m.byName[nameKey]; dup {
			return nil, fmt.Errorf("category mapping: duplicate name %q", c.Name)
		}
		if _, dup := m.byLegacyID[c.LegacyID]; dup {
			return nil, fmt.Errorf("category mapping: duplicate legacyId %q", c.LegacyID)
		}
		m.byObjectID[c.ObjectID] = c
		m.byName[nameKey] = c
		m.byLegacyID[c.LegacyID] = c
		m.categories = append(m.categories, c)
	}
	return m, nil
}

func (m *CategoryMapping) Version() string { return m.version }

// Categories returns a copy of all rows in document order.
func (m *CategoryMapping) Categories() []Category {
	out := make([]Category, len(m.categories))
	copy(out, m.categories)
	return out
}

// ByObjectID looks up the native object id.
func (m *CategoryMapping) ByObjectID(id string) (Category, bool) {
	c, ok := m.byObjectID[strings.TrimSpace(id)]
	return c, ok
}

// ByName looks up a display name, ignoring case.
func (m *CategoryMapping) ByName(name string) (Category, bool) {
	c, ok := m.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// ByLegacyID looks up the legacy numeric id.
func (m *CategoryMapping) ByLegacyID(id string) (Category, bool) {
	c, ok := m.byLegacyID[strings.TrimSpace(id)]
	return c, ok
}

// Resolve accepts a key in any of the three schemes.
func (m *CategoryMapping) Resolve(key string) (Category, bool) {
	if c, ok := m.ByObjectID(key); ok {
		return c, true
	}
	if c, ok := m.ByLegacyID(key); ok {
		return c, true
	}
	return m.ByName(key)
}
