package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	f := Default()
	if len(f.Recipes) != 15 {
		t.Errorf("expected 15 recipes, got %d", len(f.Recipes))
	}
	if len(f.Exercises) != 14 {
		t.Errorf("expected 14 exercises, got %d", len(f.Exercises))
	}

	recipes, exercises, err := f.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(recipes) != len(f.Recipes) || len(exercises) != len(f.Exercises) {
		t.Fatalf("row count mismatch: %d/%d", len(recipes), len(exercises))
	}

	var ingredients []string
	if err := json.Unmarshal(recipes[0].Ingredients, &ingredients); err != nil {
		t.Fatalf("ingredients are not a JSON array: %v", err)
	}
	if len(ingredients) == 0 {
		t.Error("expected ingredients for the first recipe")
	}
}

func TestDecode(t *testing.T) {
	doc := `
recipes:
  - id: r1
    name: Bowl
    kcal: 400
    protein_g: 30
    carbs_g: 40
    fat_g: 10
    diet_type: vegan
    allergens: [soy]
    ingredients: [tofu, rice]
    tags: {meal_type: lunch, macro_focus: balanced}
exercises:
  - id: e1
    name: Plank
    description: "  Brace and hold.  "
    tags: {equipment: [bodyweight], pattern: [core]}
  - id: e2
    name: Walk
`
	f, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Recipes[0].Tags.MacroFocus != "balanced" {
		t.Errorf("expected macro focus balanced, got %q", f.Recipes[0].Tags.MacroFocus)
	}

	_, exercises, err := f.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if exercises[0].Description == nil || *exercises[0].Description != "Brace and hold." {
		t.Errorf("expected trimmed description, got %v", exercises[0].Description)
	}
	if exercises[1].Description != nil {
		t.Errorf("expected nil description for e2, got %q", *exercises[1].Description)
	}
}

func TestDecode_Empty(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(f.Recipes) != 0 || len(f.Exercises) != 0 {
		t.Errorf("expected empty catalog, got %+v", f)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "recipes:\n  - id: r1\n    name: A\n    calories: 10\n", "calories"},
		{"missing name", "recipes:\n  - id: r1\n", "id and name are required"},
		{"negative macros", "recipes:\n  - id: r1\n    name: A\n    fat_g: -1\n", "must not be negative"},
		{"duplicate recipe", "recipes:\n  - {id: r1, name: A}\n  - {id: r1, name: B}\n", "duplicate id"},
		{"duplicate exercise", "exercises:\n  - {id: e1, name: A}\n  - {id: e1, name: B}\n", "duplicate id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDecode_SameIDAcrossCatalogs(t *testing.T) {
	doc := "recipes:\n  - {id: x, name: A}\nexercises:\n  - {id: x, name: B}\n"
	if _, err := Decode(strings.NewReader(doc)); err != nil {
		t.Errorf("recipe and exercise ids live in separate namespaces, got %v", err)
	}
}
