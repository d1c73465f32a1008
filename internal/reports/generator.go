package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/storage"
)

// Generator renders week plans as PDF or CSV.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Render returns the report body in the requested format.
func (g *Generator) Render(rep WeekReport, format string) ([]byte, error) {
	switch format {
	case FormatPDF:
		return g.generatePDF(rep)
	case FormatCSV:
		return g.generateCSV(rep)
	default:
		return nil, ErrInvalidFormat
	}
}

// generateCSV writes one row per meal and one per workout exercise.
func (g *Generator) generateCSV(rep WeekReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "focus", "kind", "slot", "name", "kcal", "protein_g", "carbs_g", "fat_g", "sets", "reps"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, day := range rep.Week {
		for _, m := range day.Meals {
			row := []string{
				day.Date, day.Focus, "meal", m.MealType, m.Name,
				strconv.Itoa(m.Kcal), formatGrams(m.ProteinG), formatGrams(m.CarbsG), formatGrams(m.FatG),
				"", "",
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
		for _, wo := range day.Workouts {
			for _, block := range wo.Blocks {
				for _, ex := range block.Exercises {
					row := []string{
						day.Date, day.Focus, "exercise", block.Title, ex.Name,
						"", "", "", "",
						strconv.Itoa(ex.Sets), ex.Reps,
					}
					if err := w.Write(row); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(rep WeekReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := textTranslator(pdf)

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Weekly Plan")
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Plan %s  |  user %s  |  week of %s", rep.PlanID, rep.UserID, rep.StartDate)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Daily target: %d kcal  |  protein %d g  |  carbs %d g  |  fat %d g",
		rep.KcalTarget, rep.Macros.ProteinG, rep.Macros.CarbsG, rep.Macros.FatG))
	pdf.Ln(10)

	if len(rep.Explanations) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Why this plan")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, e := range rep.Explanations {
			pdf.MultiCell(0, 5, tr("- "+e), "", "L", false)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Daily totals")
	pdf.Ln(8)
	g.drawTotalsTable(pdf, rep)
	pdf.Ln(6)

	for _, day := range rep.Week {
		g.drawDay(pdf, tr, day)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// drawTotalsTable prefers the stored per-day aggregates and sums the meals
// itself when the view has not caught up yet.
func (g *Generator) drawTotalsTable(pdf *gofpdf.Fpdf, rep WeekReport) {
	totals := rep.DayTotals
	if len(totals) == 0 {
		totals = sumMeals(rep.Week)
	}

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(28, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Focus", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Kcal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Fat", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, t := range totals {
		focus := ""
		if t.DayIndex >= 0 && t.DayIndex < len(rep.Week) {
			focus = rep.Week[t.DayIndex].Focus
		}
		pdf.CellFormat(28, 6, t.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, focus, "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, strconv.Itoa(t.Kcal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, formatGrams(t.ProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, formatGrams(t.CarbsG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, formatGrams(t.FatG), "1", 1, "C", false, 0, "")
	}
}

func (g *Generator) drawDay(pdf *gofpdf.Fpdf, tr func(string) string, day epe.DayPlan) {
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("%s  (%s, readiness %d)", day.Date, day.Focus, day.Readiness))
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for _, a := range day.Adjustments {
		pdf.MultiCell(0, 5, tr("* "+a), "", "L", false)
	}
	for _, m := range day.Meals {
		pdf.Cell(0, 5, tr(fmt.Sprintf("%-9s %s  %d kcal", m.MealType, m.Name, m.Kcal)))
		pdf.Ln(5)
	}
	for _, wo := range day.Workouts {
		pdf.Cell(0, 5, tr(fmt.Sprintf("%s  [%s]", wo.Name, wo.Intensity)))
		pdf.Ln(5)
		for _, block := range wo.Blocks {
			for _, ex := range block.Exercises {
				pdf.Cell(0, 5, tr(fmt.Sprintf("   %s: %d x %s", ex.Name, ex.Sets, ex.Reps)))
				pdf.Ln(5)
			}
		}
	}
	pdf.Ln(3)
}

// textTranslator maps UTF-8 text into the core font's cp1252 encoding.
func textTranslator(pdf *gofpdf.Fpdf) func(string) string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	fold := strings.NewReplacer("≥", ">=", "≤", "<=")
	return func(s string) string {
		return tr(fold.Replace(s))
	}
}

func sumMeals(week []epe.DayPlan) []storage.DayMacrosRow {
	rows := make([]storage.DayMacrosRow, len(week))
	for i, day := range week {
		rows[i] = storage.DayMacrosRow{DayIndex: i, Date: day.Date}
		for _, m := range day.Meals {
			rows[i].Kcal += m.Kcal
			rows[i].ProteinG += m.ProteinG
			rows[i].CarbsG += m.CarbsG
			rows[i].FatG += m.FatG
		}
	}
	return rows
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
