// Package registry provides question resolution over the loaded registry tree.
package registry

import (
	"log/slog"

	"github.com/naapim/naapim/internal/models"
)

// fieldKeysForArchetype walks Archetype.category_set_ids ->
// CategorySet.category_ids -> Category.field_keys and returns the field keys
// in display order. Missing intermediate nodes are skipped, not errors.
func (r *Registry) fieldKeysForArchetype(archetypeID string) []string {
	archetype, ok := r.Archetype(archetypeID)
	if !ok {
		return nil
	}
	var keys []string
	for _, csID := range archetype.CategorySetIDs {
		cs, ok := r.categorySets[csID]
		if !ok {
			slog.Warn("registry: category set referenced but not defined", "archetype", archetypeID, "category_set", csID)
			continue
		}
		for _, catID := range cs.CategoryIDs {
			cat, ok := r.categories[catID]
			if !ok {
				slog.Warn("registry: category referenced but not defined", "category_set", csID, "category", catID)
				continue
			}
			keys = append(keys, cat.FieldKeys...)
		}
	}
	return keys
}

// resolveField turns a field key into a displayable question, or false when
// the field is missing, not single_select, or its option set is absent.
func (r *Registry) resolveField(key string) (models.Question, bool) {
	field, ok := r.fields[key]
	if !ok {
		slog.Debug("registry: field key not defined", "key", key)
		return models.Question{}, false
	}
	if field.Type != models.FieldTypeSingleSelect {
		slog.Debug("registry: skipping non single_select field", "key", key, "type", field.Type)
		return models.Question{}, false
	}
	optionSet, ok := r.optionSets[field.OptionSetID]
	if !ok {
		slog.Warn("registry: option set referenced but not defined", "key", key, "option_set", field.OptionSetID)
		return models.Question{}, false
	}
	return models.Question{
		FieldKey: field.Key,
		Text:     field.Label,
		Options:  optionSet.Options,
	}, true
}

// categoryLabelForField finds the label of the category owning a field key.
// Best-effort reverse lookup; returns empty when no category lists the key.
func (r *Registry) categoryLabelForField(key string) string {
	for _, cat := range r.categories {
		for _, fk := range cat.FieldKeys {
			if fk == key {
				return cat.Label
			}
		}
	}
	return ""
}

// QuestionsForArchetype returns the full ordered question list for an
// archetype. Unknown archetype ids yield an empty list; callers log.
func (r *Registry) QuestionsForArchetype(archetypeID string) []models.Question {
	keys := r.fieldKeysForArchetype(archetypeID)
	questions := make([]models.Question, 0, len(keys))
	for _, key := range keys {
		q, ok := r.resolveField(key)
		if !ok {
			continue
		}
		q.CategoryLabel = r.categoryLabelForField(key)
		questions = append(questions, q)
	}
	return questions
}

// QuestionsForFieldKeys resolves an explicit key list, preserving the
// caller-supplied order. Unresolvable keys are skipped.
func (r *Registry) QuestionsForFieldKeys(keys []string) []models.Question {
	questions := make([]models.Question, 0, len(keys))
	for _, key := range keys {
		q, ok := r.resolveField(key)
		if !ok {
			continue
		}
		q.CategoryLabel = r.categoryLabelForField(key)
		questions = append(questions, q)
	}
	return questions
}

// AvailableFields returns every selectable field for an archetype with its
// label and option labels, in catalog order. This is the question selector's
// working set.
func (r *Registry) AvailableFields(archetypeID string) []models.AvailableField {
	keys := r.fieldKeysForArchetype(archetypeID)
	fields := make([]models.AvailableField, 0, len(keys))
	for _, key := range keys {
		q, ok := r.resolveField(key)
		if !ok {
			continue
		}
		labels := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			labels = append(labels, opt.Label)
		}
		fields = append(fields, models.AvailableField{Key: key, Label: q.Text, Options: labels})
	}
	return fields
}

// SimplePool returns the key+label candidates for the simple-complexity
// branch of an archetype. The pool is every resolvable single_select field.
func (r *Registry) SimplePool(archetypeID string) []models.SimpleField {
	keys := r.fieldKeysForArchetype(archetypeID)
	pool := make([]models.SimpleField, 0, len(keys))
	for _, key := range keys {
		q, ok := r.resolveField(key)
		if !ok {
			continue
		}
		pool = append(pool, models.SimpleField{Key: key, Label: q.Text})
	}
	return pool
}

// SimplePools returns the per-archetype simple pools for the whole catalog,
// excluding archetypes with no resolvable fields.
func (r *Registry) SimplePools() map[string][]models.SimpleField {
	pools := make(map[string][]models.SimpleField, len(r.archetypes))
	for _, a := range r.archetypes {
		pool := r.SimplePool(a.ID)
		if len(pool) > 0 {
			pools[a.ID] = pool
		}
	}
	return pools
}
