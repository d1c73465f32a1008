package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/storage"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// File is the on-disk seed format: two lists, one per catalog.
type File struct {
	Recipes   []RecipeEntry   `yaml:"recipes"`
	Exercises []ExerciseEntry `yaml:"exercises"`
}

type RecipeEntry struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Kcal        int            `yaml:"kcal"`
	ProteinG    float64        `yaml:"protein_g"`
	CarbsG      float64        `yaml:"carbs_g"`
	FatG        float64        `yaml:"fat_g"`
	DietType    string         `yaml:"diet_type"`
	Allergens   []string       `yaml:"allergens"`
	Ingredients []string       `yaml:"ingredients"`
	Tags        epe.RecipeTags `yaml:"tags"`
}

type ExerciseEntry struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Tags        epe.ExerciseTags `yaml:"tags"`
}

// Decode reads and validates a YAML catalog.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Default returns the catalog bundled with the binary.
func Default() *File {
	f, err := Decode(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return f
}

func (f *File) validate() error {
	seen := map[string]bool{}
	for i, r := range f.Recipes {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("recipes[%d]: id and name are required", i)
		}
		if r.Kcal < 0 || r.ProteinG < 0 || r.CarbsG < 0 || r.FatG < 0 {
			return fmt.Errorf("recipe %s: nutrition values must not be negative", r.ID)
		}
		if seen["r:"+r.ID] {
			return fmt.Errorf("recipe %s: duplicate id", r.ID)
		}
		seen["r:"+r.ID] = true
	}
	for i, e := range f.Exercises {
		if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("exercises[%d]: id and name are required", i)
		}
		if seen["e:"+e.ID] {
			return fmt.Errorf("exercise %s: duplicate id", e.ID)
		}
		seen["e:"+e.ID] = true
	}
	return nil
}

// Rows converts the file into storage rows ready for upsert.
func (f *File) Rows() ([]storage.RecipeRow, []storage.ExerciseRow, error) {
	recipes := make([]storage.RecipeRow, 0, len(f.Recipes))
	for _, r := range f.Recipes {
		ingredients := r.Ingredients
		if ingredients == nil {
			ingredients = []string{}
		}
		ingJSON, err := marshalJSON(ingredients)
		if err != nil {
			return nil, nil, err
		}
		tagsJSON, err := json.Marshal(r.Tags)
		if err != nil {
			return nil, nil, err
		}
		recipes = append(recipes, storage.RecipeRow{
			ID:          r.ID,
			Name:        r.Name,
			Kcal:        r.Kcal,
			ProteinG:    r.ProteinG,
			CarbsG:      r.CarbsG,
			FatG:        r.FatG,
			DietType:    r.DietType,
			Allergens:   r.Allergens,
			Ingredients: ingJSON,
			Tags:        tagsJSON,
		})
	}

	exercises := make([]storage.ExerciseRow, 0, len(f.Exercises))
	for _, e := range f.Exercises {
		tagsJSON, err := json.Marshal(e.Tags)
		if err != nil {
			return nil, nil, err
		}
		row := storage.ExerciseRow{ID: e.ID, Name: e.Name, Tags: tagsJSON}
		if d := strings.TrimSpace(e.Description); d != "" {
			row.Description = &d
		}
		exercises = append(exercises, row)
	}
	return recipes, exercises, nil
}

// marshalJSON encodes v without HTML escaping so ingredient text keeps
// literal "&", "<" and ">".
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
