package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	archetypes := reg.Archetypes()
	if len(archetypes) == 0 {
		t.Fatal("embedded catalog has no archetypes")
	}
	if reg.DefaultArchetype().ID != "career_decisions" {
		t.Errorf("default archetype = %q", reg.DefaultArchetype().ID)
	}
	if _, ok := reg.Archetype(BlockedArchetypeID); !ok {
		t.Errorf("catalog is missing the %s archetype", BlockedArchetypeID)
	}
	if _, ok := reg.Archetype("no_such"); ok {
		t.Error("unknown archetype id should not resolve")
	}
}

func TestLoad_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	override := `[
		{"id": "only_one", "label": "Tek", "follow_up_days": 5,
		 "category_set_ids": ["cs_career"],
		 "routing_hints": {"definition": "", "keywords": [],
		  "positive_examples": [], "negative_examples": [], "exclusions": []}}
	]`
	if err := os.WriteFile(filepath.Join(dir, "archetypes.json"), []byte(override), 0644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Archetypes()) != 1 || reg.DefaultArchetype().ID != "only_one" {
		t.Errorf("override not applied: %+v", reg.Archetypes())
	}
	// The remaining documents still come from the embedded defaults.
	if len(reg.QuestionsForArchetype("only_one")) == 0 {
		t.Error("embedded category sets should resolve under the overridden archetype")
	}
}

func TestLoad_EmptyArchetypesRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "archetypes.json"), []byte("[]"), 0644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("an empty archetype catalog should be rejected")
	}
}

func TestQuestionsForArchetype(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	questions := reg.QuestionsForArchetype("lifestyle_decisions")
	if len(questions) != 4 {
		t.Fatalf("lifestyle questions = %d", len(questions))
	}
	if questions[0].FieldKey != "lifestyle_time_available" {
		t.Errorf("first question = %q", questions[0].FieldKey)
	}
	for _, q := range questions {
		if q.Text == "" || len(q.Options) == 0 {
			t.Errorf("question %q incompletely resolved: %+v", q.FieldKey, q)
		}
		if q.CategoryLabel == "" {
			t.Errorf("question %q missing category label", q.FieldKey)
		}
	}

	if got := reg.QuestionsForArchetype("no_such"); len(got) != 0 {
		t.Errorf("unknown archetype should yield no questions, got %d", len(got))
	}
	if got := reg.QuestionsForArchetype(BlockedArchetypeID); len(got) != 0 {
		t.Errorf("blocked archetype should yield no questions, got %d", len(got))
	}
}

func TestQuestionsForFieldKeys_PreservesOrderAndSkipsUnknown(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	keys := []string{"lifestyle_cost", "no_such_field", "lifestyle_time_available"}
	questions := reg.QuestionsForFieldKeys(keys)
	if len(questions) != 2 {
		t.Fatalf("resolved %d questions, want 2", len(questions))
	}
	if questions[0].FieldKey != "lifestyle_cost" || questions[1].FieldKey != "lifestyle_time_available" {
		t.Errorf("order not preserved: %q, %q", questions[0].FieldKey, questions[1].FieldKey)
	}
}

func TestAvailableFieldsAndSimplePools(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	available := reg.AvailableFields("career_decisions")
	if len(available) < 10 {
		t.Fatalf("career should have a large working set, got %d", len(available))
	}
	for _, f := range available {
		if f.Label == "" || len(f.Options) == 0 {
			t.Errorf("available field %q incompletely resolved: %+v", f.Key, f)
		}
	}

	pools := reg.SimplePools()
	if _, ok := pools[BlockedArchetypeID]; ok {
		t.Error("blocked archetype must not appear in the simple pools")
	}
	if pool := pools["lifestyle_decisions"]; len(pool) != 4 {
		t.Errorf("lifestyle simple pool = %d fields", len(pool))
	}
}
