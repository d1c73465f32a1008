package epe

import (
	"fmt"
	"math"
	"time"
)

const (
	kcalPerKg      = 7700.0
	minKcalTarget  = 1200
	defaultFactor  = 1.2
	proteinDefault = 1.8
	proteinHigh    = 2.2
	proteinGain    = 2.0
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary: 1.2,
	ActivityLight:     1.375,
	ActivityModerate:  1.55,
	ActivityHigh:      1.725,
	ActivityAthlete:   1.9,
}

type goalRule struct {
	factor      float64
	explanation string
}

var goalRules = map[Goal]goalRule{
	GoalFatLoss: {
		factor:      0.85,
		explanation: "Applied a moderate caloric deficit (~15%) to support fat loss while preserving energy.",
	},
	GoalMuscleGain: {
		factor:      1.12,
		explanation: "Added a gentle surplus (~12%) to drive muscle gain with controlled fat accrual.",
	},
	GoalRecomp: {
		factor:      1.0,
		explanation: "Kept calories near maintenance to prioritize body recomposition.",
	},
	GoalEndurance: {
		factor:      1.05,
		explanation: "Shifted calories toward endurance output while preserving recovery fuel.",
	},
	GoalMaintenance: {
		factor:      1.0,
		explanation: "Caloric target anchored at maintenance for stability.",
	},
}

// contextRule appends its note when applies reports true. Rules are evaluated
// in order and independently of each other.
type contextRule struct {
	applies func(in Input, age int) bool
	note    string
}

var contextRules = []contextRule{
	{
		applies: func(_ Input, age int) bool { return age >= 50 },
		note:    "Training volume dialed back ~10% to match recovery trends after age 50.",
	},
	{
		applies: func(in Input, _ int) bool {
			steps, ok := stepsOf(in)
			return ok && steps < 6000
		},
		note: "Daily step target increased (6-8k) to boost NEAT and recovery quality.",
	},
	{
		applies: func(in Input, _ int) bool {
			hrv, ok := hrvOf(in)
			return ok && hrv < 45
		},
		note: "Low HRV detected; recovery days scheduled to avoid overreaching.",
	},
	{
		applies: func(in Input, _ int) bool {
			return present(in.MotivationBaseline) && *in.MotivationBaseline <= 2
		},
		note: "Kept choices simple to rebuild momentum and confidence.",
	},
	{
		applies: func(in Input, _ int) bool { return in.TrainingAge == TrainingAgeNew },
		note:    "Progression starts with controlled tempos and foundational movements for new trainees.",
	},
	{
		applies: func(in Input, _ int) bool { return len(in.Equipment) <= 2 },
		note:    "Exercise menu tailored to match your available equipment.",
	},
	{
		applies: func(in Input, _ int) bool {
			return in.DietType != DietOmnivore || len(in.Allergies) > 0
		},
		note: "Meal plan respects your diet type and filters out allergens automatically.",
	},
}

// AgeOn returns whole calendar years between dob and now, decremented when
// the birthday has not happened yet this year.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// MifflinStJeor returns resting energy expenditure in kcal/day.
func MifflinStJeor(sex Sex, weightKg, heightCm float64, age int) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch sex {
	case SexMale:
		return base + 5
	case SexFemale:
		return base - 161
	default:
		// midpoint of the male and female offsets
		return base - 78
	}
}

// roundHalfUp rounds halves toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// DeriveContext computes the metabolic context for one request.
func DeriveContext(in Input, now time.Time) DerivedContext {
	dob, _ := ParseDOB(in.DOB)
	age := AgeOn(dob, now)
	bmr := MifflinStJeor(in.Sex, in.WeightKg, in.HeightCm, age)
	factor, ok := activityFactors[in.ActivityLevel]
	if !ok {
		factor = defaultFactor
	}
	tdee := roundHalfUp(bmr * factor)

	ctx := DerivedContext{
		Age:            age,
		BMR:            bmr,
		ActivityFactor: factor,
		TDEE:           tdee,
	}

	ctx.KcalTarget = ctx.applyGoal(in.PrimaryGoal, in.WeeklyChangeRate)
	for _, rule := range contextRules {
		if rule.applies(in, age) {
			ctx.explain(rule.note)
		}
	}
	ctx.Macros = ctx.buildMacros(in)

	return ctx
}

func (c *DerivedContext) explain(note string) {
	c.Explanations = append(c.Explanations, note)
}

func (c *DerivedContext) applyGoal(goal Goal, weeklyRate *float64) int {
	rule, ok := goalRules[goal]
	if !ok {
		rule = goalRules[GoalMaintenance]
	}
	target := roundHalfUp(float64(c.TDEE) * rule.factor)
	c.explain(rule.explanation)

	if weeklyRate != nil && *weeklyRate != 0 {
		dailyDelta := *weeklyRate * kcalPerKg / 7
		target = roundHalfUp(float64(c.TDEE) + dailyDelta)
		c.explain(fmt.Sprintf("Calorie target set from your requested rate of %+.2f kg/week (≈%+d kcal/day).", *weeklyRate, roundHalfUp(dailyDelta)))
	}

	if target < minKcalTarget {
		target = minKcalTarget
	}
	return target
}

func (c *DerivedContext) buildMacros(in Input) Macros {
	lean := in.BodyFatPc != nil &&
		((in.Sex == SexMale && *in.BodyFatPc < 15) || (in.Sex == SexFemale && *in.BodyFatPc < 24))

	perKg := proteinDefault
	switch {
	case in.PrimaryGoal == GoalFatLoss || lean:
		perKg = proteinHigh
		c.explain("Protein set high (≈2.2 g/kg) to preserve lean mass while leaning out.")
	case in.PrimaryGoal == GoalMuscleGain:
		perKg = proteinGain
		c.explain("Protein emphasized (~2.0 g/kg) to support hypertrophy and recovery.")
	}

	kcal := float64(c.KcalTarget)
	protein := roundHalfUp(perKg * in.WeightKg)
	proteinKcal := float64(protein * 4)

	fat := max(roundHalfUp(in.WeightKg*0.8), roundHalfUp(kcal*0.2/9))
	fatKcal := float64(fat * 9)
	if fatKcal/kcal < 0.2 {
		c.explain("Fats held at ≥20% of calories to maintain hormone health.")
	}

	remaining := kcal - (proteinKcal + fatKcal)
	if in.PrimaryGoal == GoalEndurance {
		remaining = float64(roundHalfUp(kcal*0.55 - proteinKcal - fatKcal))
		c.explain("Carbohydrates biased upward to fuel endurance blocks.")
	}
	carbs := max(0, roundHalfUp(remaining/4))

	return Macros{
		ProteinG:   protein,
		FatG:       fat,
		CarbsG:     carbs,
		KcalTarget: c.KcalTarget,
	}
}

// present reports whether an optional subjective score was provided.
func present(v *int) bool {
	return v != nil && *v != 0
}

func hrvOf(in Input) (float64, bool) {
	if in.RecentMetrics == nil || in.RecentMetrics.HRVRMSSD == nil || *in.RecentMetrics.HRVRMSSD == 0 {
		return 0, false
	}
	return *in.RecentMetrics.HRVRMSSD, true
}

func sleepScoreOf(in Input) (float64, bool) {
	if in.RecentMetrics == nil || in.RecentMetrics.SleepScore == nil || *in.RecentMetrics.SleepScore == 0 {
		return 0, false
	}
	return *in.RecentMetrics.SleepScore, true
}

func stepsOf(in Input) (int, bool) {
	if in.RecentMetrics == nil || in.RecentMetrics.Steps == nil || *in.RecentMetrics.Steps == 0 {
		return 0, false
	}
	return *in.RecentMetrics.Steps, true
}
