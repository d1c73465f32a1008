package epe

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	minHeightCm       = 120
	maxHeightCm       = 272
	minWeightKg       = 40
	maxWeightKg       = 650
	maxWeeklyChangeKg = 1.5
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the full list of problems found in an Input.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + ": " + e.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

var (
	validSexes = map[Sex]bool{SexMale: true, SexFemale: true, SexOther: true}
	validAges  = map[TrainingAge]bool{
		TrainingAgeNew: true, TrainingAgeOneToTwo: true, TrainingAgeThreePlus: true,
	}
)

// ParseDOB accepts a calendar date (YYYY-MM-DD) or a full RFC 3339 timestamp.
func ParseDOB(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Validate checks an Input before it reaches the planner. A nil result means
// the input is safe to plan with.
func Validate(in Input) ValidationErrors {
	return ValidateAt(in, time.Now())
}

// ValidateAt is Validate with an explicit "today" for the date of birth check.
func ValidateAt(in Input, today time.Time) ValidationErrors {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(in.UserID) == "" {
		add("user_id", "is required")
	}
	if strings.TrimSpace(in.DOB) == "" {
		add("dob", "is required")
	} else if dob, err := ParseDOB(in.DOB); err != nil {
		add("dob", "must be a date in YYYY-MM-DD format")
	} else if dob.After(today) {
		add("dob", "must not be in the future")
	}
	if !validSexes[in.Sex] {
		add("sex", "must be one of male, female, other")
	}
	if math.IsNaN(in.HeightCm) || in.HeightCm < minHeightCm || in.HeightCm > maxHeightCm {
		add("height_cm", "unrealistic, must be between %d and %d", minHeightCm, maxHeightCm)
	}
	if math.IsNaN(in.WeightKg) || in.WeightKg < minWeightKg || in.WeightKg > maxWeightKg {
		add("weight_kg", "unrealistic, must be between %d and %d", minWeightKg, maxWeightKg)
	}
	if in.BodyFatPc != nil && (*in.BodyFatPc <= 0 || *in.BodyFatPc >= 70) {
		add("body_fat_pct", "must be between 0 and 70")
	}
	if !validAges[in.TrainingAge] {
		add("training_age", "must be one of new, 1-2y, 3y+")
	}
	if _, ok := activityFactors[in.ActivityLevel]; !ok {
		add("activity_level", "must be one of sedentary, light, moderate, high, athlete")
	}
	if _, ok := goalRules[in.PrimaryGoal]; !ok {
		add("primary_goal", "must be one of fat_loss, muscle_gain, recomp, endurance, maintenance")
	}
	if in.GoalDurationWeeks <= 0 {
		add("goal_duration_weeks", "is required")
	}
	if in.WeeklyChangeRate != nil && math.Abs(*in.WeeklyChangeRate) > maxWeeklyChangeKg {
		add("weekly_change_rate", "must be within ±%.1f kg/week", maxWeeklyChangeKg)
	}
	if _, ok := dietRules[in.DietType]; !ok {
		add("diet_type", "must be one of omnivore, pescatarian, vegetarian, vegan, paleo, keto, lowFODMAP")
	}
	if in.TrainingDaysPerWeek <= 0 {
		add("training_days_per_week", "is required")
	}
	if in.SessionLengthMin <= 0 {
		add("session_length_min", "is required")
	}
	if in.StressBaseline != nil && (*in.StressBaseline < 1 || *in.StressBaseline > 5) {
		add("stress_baseline", "must be between 1 and 5")
	}
	if in.MotivationBaseline != nil && (*in.MotivationBaseline < 1 || *in.MotivationBaseline > 5) {
		add("motivation_baseline", "must be between 1 and 5")
	}

	return errs
}
