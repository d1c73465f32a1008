// Package epe is the Explainable Personalization Engine: a deterministic,
// rule-based planner that turns a biometric and goal profile into a 7-day
// plan of workouts and meals, with a plain-language reason for each decision.
//
// The package performs no I/O. Callers fetch catalog snapshots, validate the
// input with Validate, call Planner.Generate, and persist the result.
package epe

import "time"

// Planner generates week plans. The zero value is not usable; use New.
type Planner struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Planner)

// WithClock overrides the source of "today". Tests use it to freeze time.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// WithLocation stamps plan dates in loc instead of the clock's own zone.
func WithLocation(loc *time.Location) Option {
	return func(p *Planner) {
		p.loc = loc
	}
}

func New(opts ...Option) *Planner {
	p := &Planner{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Today returns the planner's current calendar date at midnight.
func (p *Planner) Today() time.Time {
	now := p.now()
	if p.loc != nil {
		now = now.In(p.loc)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Validate checks in against the planner's today.
func (p *Planner) Validate(in Input) ValidationErrors {
	return ValidateAt(in, p.Today())
}

// Generate builds the week plan for a validated input. It never fails: a thin
// catalog only degrades variety and is reported in the explanations.
func (p *Planner) Generate(in Input, catalog Catalog) WeekPlan {
	today := p.Today()
	ctx := DeriveContext(in, today)

	recipes := FilterRecipes(in, catalog.Recipes)
	exercises := FilterExercises(in, catalog.Exercises)

	explanations := make([]string, 0, len(ctx.Explanations)+2)
	explanations = append(explanations, ctx.Explanations...)
	explanations = append(explanations, poolNotes(recipes, exercises)...)

	builder := weekBuilder{
		in:        in,
		readiness: Readiness(in),
		recipes:   recipes,
		exercises: exercises,
		start:     today,
	}

	return WeekPlan{
		Week:         builder.build(),
		Explanations: explanations,
		Macros:       ctx.Macros,
		KcalTarget:   ctx.KcalTarget,
	}
}

// Context exposes the derived metabolic context for a validated input, e.g.
// for reporting TDEE next to a stored plan.
func (p *Planner) Context(in Input) DerivedContext {
	return DeriveContext(in, p.Today())
}
