package reports

import (
	"errors"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/storage"
)

// Report formats
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

var ErrInvalidFormat = errors.New("invalid format")

// WeekReport: всё, что нужно для отчёта по сохранённому плану
type WeekReport struct {
	PlanID       uuid.UUID
	UserID       string
	StartDate    string
	KcalTarget   int
	Macros       epe.Macros
	Week         []epe.DayPlan
	Explanations []string
	DayTotals    []storage.DayMacrosRow // from plan_day_macros, may be empty
}

// Published is either an uploaded object (URL set) or inline bytes.
type Published struct {
	URL         string
	Key         string
	Data        []byte
	ContentType string
	Filename    string
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
