package epe

import (
	"encoding/json"
	"slices"
	"strings"
)

const (
	minRecipePool   = 4
	minExercisePool = 5
)

// dietRules decides whether a recipe fits the requested diet.
var dietRules = map[DietType]func(r Recipe) bool{
	DietOmnivore: func(Recipe) bool { return true },
	DietVegetarian: func(r Recipe) bool {
		return r.DietType == string(DietVegetarian) || r.DietType == string(DietVegan)
	},
	DietVegan: func(r Recipe) bool { return r.DietType == string(DietVegan) },
	DietPescatarian: func(r Recipe) bool {
		return r.DietType == string(DietPescatarian) || r.DietType == string(DietOmnivore)
	},
	DietPaleo: func(r Recipe) bool {
		return slices.Contains(r.Tags.Diet, string(DietPaleo)) || r.DietType == string(DietOmnivore)
	},
	DietKeto: func(r Recipe) bool {
		return r.Tags.MacroFocus == "low_carb" || r.Tags.MacroFocus == "balanced"
	},
	DietLowFODMAP: func(r Recipe) bool { return r.DietType == string(DietLowFODMAP) },
}

// MatchesDiet reports whether r is compatible with diet. Unknown diets accept
// everything.
func MatchesDiet(r Recipe, diet DietType) bool {
	rule, ok := dietRules[diet]
	if !ok {
		return true
	}
	return rule(r)
}

// FilterRecipes narrows recipes by diet, then allergens, then restricted
// ingredient terms. Catalog order is preserved.
func FilterRecipes(in Input, recipes []Recipe) []Recipe {
	restricted := make([]string, 0, len(in.RestrictedFoods))
	for _, term := range in.RestrictedFoods {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			restricted = append(restricted, term)
		}
	}

	pool := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if !MatchesDiet(r, in.DietType) {
			continue
		}
		if sharesAllergen(r.Allergens, in.Allergies) {
			continue
		}
		if containsRestricted(r.Ingredients, restricted) {
			continue
		}
		pool = append(pool, r)
	}
	return pool
}

func sharesAllergen(recipeAllergens, allergies []string) bool {
	for _, a := range recipeAllergens {
		for _, b := range allergies {
			if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
				return true
			}
		}
	}
	return false
}

func containsRestricted(ingredients []byte, terms []string) bool {
	if len(terms) == 0 || len(ingredients) == 0 {
		return false
	}
	text := strings.ToLower(ingredientText(ingredients))
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// ingredientText returns the decoded ingredient list joined by newlines, or
// the raw bytes when they are not a JSON string list.
func ingredientText(ingredients []byte) string {
	var items []string
	if err := json.Unmarshal(ingredients, &items); err != nil {
		return string(ingredients)
	}
	return strings.Join(items, "\n")
}

// FilterExercises keeps exercises that need no equipment or need at least one
// item the user has.
func FilterExercises(in Input, exercises []Exercise) []Exercise {
	pool := make([]Exercise, 0, len(exercises))
	for _, ex := range exercises {
		if UsableWith(ex, in.Equipment) {
			pool = append(pool, ex)
		}
	}
	return pool
}

// UsableWith reports whether ex can be performed with the given equipment.
func UsableWith(ex Exercise, equipment []string) bool {
	if len(ex.Tags.Equipment) == 0 {
		return true
	}
	for _, need := range ex.Tags.Equipment {
		if slices.Contains(equipment, need) {
			return true
		}
	}
	return false
}

// poolNotes returns the explanations for catalog pools too small to avoid
// repetition across the week.
func poolNotes(recipes []Recipe, exercises []Exercise) []string {
	var notes []string
	if len(recipes) < minRecipePool {
		notes = append(notes, "Limited recipe matches; rotating available meals while respecting dietary filters.")
	}
	if len(exercises) < minExercisePool {
		notes = append(notes, "Exercise pool constrained by equipment; reusing movements to maintain consistency.")
	}
	return notes
}
