// Package registry loads the static question registry for naapim.
//
// The registry is a four-level tree (Archetype -> CategorySet -> Category ->
// Field -> OptionSet) shipped as five JSON documents. It is loaded once at
// startup and treated as immutable for the process lifetime.
package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/naapim/naapim/internal/models"
)

//go:embed data/*.json
var defaultData embed.FS

// Document file names within a registry data directory.
const (
	archetypesFile   = "archetypes.json"
	categorySetsFile = "category_sets.json"
	categoriesFile   = "categories.json"
	fieldsFile       = "fields.json"
	optionSetsFile   = "option_sets.json"
)

// BlockedArchetypeID is the reserved archetype for topics the product
// excludes entirely (financial/medical/legal advice). The flow controller
// dead-ends on it without offering questions.
const BlockedArchetypeID = "blocked_topics"

// Registry holds the loaded reference data with id-keyed indexes.
type Registry struct {
	archetypes   []models.Archetype
	categorySets map[string]models.CategorySet
	categories   map[string]models.Category
	fields       map[string]models.Field
	optionSets   map[string]models.OptionSet
	fieldOrder   []string // catalog order of field keys, as declared in fields.json
}

// Load reads the registry from the given directory, falling back to the
// embedded defaults for any missing document. An empty dir loads only the
// embedded defaults.
func Load(dir string) (*Registry, error) {
	slog.Debug("registry.Load invoked", "dir", dir)

	var archetypes []models.Archetype
	if err := loadDocument(dir, archetypesFile, &archetypes); err != nil {
		return nil, fmt.Errorf("failed to load archetypes: %w", err)
	}
	var categorySets []models.CategorySet
	if err := loadDocument(dir, categorySetsFile, &categorySets); err != nil {
		return nil, fmt.Errorf("failed to load category sets: %w", err)
	}
	var categories []models.Category
	if err := loadDocument(dir, categoriesFile, &categories); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	var fields []models.Field
	if err := loadDocument(dir, fieldsFile, &fields); err != nil {
		return nil, fmt.Errorf("failed to load fields: %w", err)
	}
	var optionSets []models.OptionSet
	if err := loadDocument(dir, optionSetsFile, &optionSets); err != nil {
		return nil, fmt.Errorf("failed to load option sets: %w", err)
	}

	if len(archetypes) == 0 {
		return nil, fmt.Errorf("registry contains no archetypes")
	}

	reg := &Registry{
		archetypes:   archetypes,
		categorySets: make(map[string]models.CategorySet, len(categorySets)),
		categories:   make(map[string]models.Category, len(categories)),
		fields:       make(map[string]models.Field, len(fields)),
		optionSets:   make(map[string]models.OptionSet, len(optionSets)),
		fieldOrder:   make([]string, 0, len(fields)),
	}
	for _, cs := range categorySets {
		reg.categorySets[cs.ID] = cs
	}
	for _, c := range categories {
		reg.categories[c.ID] = c
	}
	for _, f := range fields {
		reg.fields[f.Key] = f
		reg.fieldOrder = append(reg.fieldOrder, f.Key)
	}
	for _, os := range optionSets {
		reg.optionSets[os.ID] = os
	}

	slog.Info("registry loaded",
		"archetypes", len(archetypes),
		"category_sets", len(categorySets),
		"categories", len(categories),
		"fields", len(fields),
		"option_sets", len(optionSets))
	return reg, nil
}

// loadDocument reads a single JSON document from dir if present there,
// otherwise from the embedded defaults.
func loadDocument(dir, name string, out interface{}) error {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			slog.Debug("registry document loaded from disk", "path", path)
			return json.Unmarshal(data, out)
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		slog.Debug("registry document not on disk, using embedded default", "name", name)
	}
	data, err := defaultData.ReadFile("data/" + name)
	if err != nil {
		return fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	return json.Unmarshal(data, out)
}

// Archetypes returns the archetype catalog in declaration order.
func (r *Registry) Archetypes() []models.Archetype {
	out := make([]models.Archetype, len(r.archetypes))
	copy(out, r.archetypes)
	return out
}

// Archetype looks up a single archetype by id.
func (r *Registry) Archetype(id string) (models.Archetype, bool) {
	for _, a := range r.archetypes {
		if a.ID == id {
			return a, true
		}
	}
	return models.Archetype{}, false
}

// DefaultArchetype returns the first archetype in the catalog. It is the
// fail-open substitute whenever classification cannot produce a valid id.
func (r *Registry) DefaultArchetype() models.Archetype {
	return r.archetypes[0]
}

// Field looks up a single field definition by key.
func (r *Registry) Field(key string) (models.Field, bool) {
	f, ok := r.fields[key]
	return f, ok
}

// OptionSet looks up an option set by id.
func (r *Registry) OptionSet(id string) (models.OptionSet, bool) {
	os, ok := r.optionSets[id]
	return os, ok
}
