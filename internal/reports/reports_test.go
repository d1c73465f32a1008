package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/epe"
)

type fakeBlob struct {
	puts    map[string][]byte
	types   map[string]string
	ttl     time.Duration
	failPut bool
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{puts: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBlob) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	if f.failPut {
		return 0, errors.New("bucket unavailable")
	}
	f.puts[key] = data
	f.types[key] = contentType
	return int64(len(data)), nil
}

func (f *fakeBlob) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.ttl = ttl
	return "https://objects.test/" + key + "?sig=1", nil
}

func sampleReport() WeekReport {
	week := make([]epe.DayPlan, 7)
	for i := range week {
		week[i] = epe.DayPlan{
			Date:        time.Date(2026, 3, 15+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Readiness:   52,
			Focus:       epe.FocusRecover,
			Adjustments: []string{"Active recovery emphasis: mobility, walking, and hydration."},
			Meals: []epe.Meal{
				{Name: "Tofu Power Bowl", MealType: "breakfast", Kcal: 520, ProteinG: 32, CarbsG: 58, FatG: 18, RecipeID: "r1"},
				{Name: "Lentil Stew", MealType: "dinner", Kcal: 460, ProteinG: 24, CarbsG: 60, FatG: 10, RecipeID: "r2"},
			},
			Workouts: []epe.Workout{},
		}
	}
	week[0].Focus = epe.FocusTrain
	week[0].Workouts = []epe.Workout{{
		Name:      "fat loss Session",
		Intensity: "moderate",
		Blocks: []epe.WorkoutBlock{{
			Title:     "Primary Strength",
			Exercises: []epe.BlockExercise{{ExerciseID: "e1", Name: "Goblet Squat", Sets: 3, Reps: "6-10"}},
		}},
	}}

	return WeekReport{
		PlanID:       uuid.MustParse("7d2c1a40-0000-4000-8000-000000000001"),
		UserID:       "user-1",
		StartDate:    week[0].Date,
		KcalTarget:   2373,
		Macros:       epe.Macros{ProteinG: 189, FatG: 69, CarbsG: 249, KcalTarget: 2373},
		Week:         week,
		Explanations: []string{"Protein held at ≥2.2 g/kg – café"},
	}
}

func TestRenderPDF(t *testing.T) {
	data, err := NewGenerator().Render(sampleReport(), FormatPDF)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", data[:min(8, len(data))])
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := NewGenerator().Render(sampleReport(), FormatCSV)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	// header + 14 meals + 1 exercise
	if len(rows) != 16 {
		t.Fatalf("expected 16 rows, got %d", len(rows))
	}
	if rows[1][2] != "meal" || rows[1][5] != "520" {
		t.Errorf("unexpected first meal row: %v", rows[1])
	}
	if rows[3][2] != "exercise" || rows[3][9] != "3" {
		t.Errorf("unexpected exercise row: %v", rows[3])
	}
}

func TestRender_InvalidFormat(t *testing.T) {
	if _, err := NewGenerator().Render(sampleReport(), "docx"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestSumMeals(t *testing.T) {
	rows := sumMeals(sampleReport().Week)
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0].Kcal != 980 || rows[0].ProteinG != 56 {
		t.Errorf("unexpected totals: %+v", rows[0])
	}
}

func TestPublish_LocalMode(t *testing.T) {
	svc := NewService(nil, 15*time.Minute)
	if !svc.LocalMode() {
		t.Fatal("expected local mode without a blob store")
	}

	out, err := svc.Publish(context.Background(), sampleReport(), "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if out.URL != "" || len(out.Data) == 0 {
		t.Errorf("expected inline data and no URL, got url=%q len=%d", out.URL, len(out.Data))
	}
	if out.ContentType != "application/pdf" || out.Filename != "plan-2026-03-15.pdf" {
		t.Errorf("unexpected metadata: %+v", out)
	}
}

func TestPublish_S3Mode(t *testing.T) {
	store := newFakeBlob()
	svc := NewService(store, 15*time.Minute)
	rep := sampleReport()

	out, err := svc.Publish(context.Background(), rep, FormatPDF)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	key := "plans/" + rep.PlanID.String() + "/week.pdf"
	if out.Key != key {
		t.Errorf("expected key %s, got %s", key, out.Key)
	}
	if _, ok := store.puts[key]; !ok {
		t.Fatalf("expected upload under %s", key)
	}
	if store.types[key] != "application/pdf" {
		t.Errorf("unexpected content type %q", store.types[key])
	}
	if store.ttl != 15*time.Minute {
		t.Errorf("expected presign ttl 15m, got %v", store.ttl)
	}
	if out.URL == "" || out.Data != nil {
		t.Errorf("expected URL only, got %+v", out)
	}
}

func TestPublish_UploadFailure(t *testing.T) {
	store := newFakeBlob()
	store.failPut = true

	if _, err := NewService(store, time.Minute).Publish(context.Background(), sampleReport(), FormatCSV); err == nil {
		t.Fatal("expected upload error")
	}
}
