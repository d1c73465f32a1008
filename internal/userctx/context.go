// Package userctx carries the authenticated subject through request contexts.
// It sits below auth and plans so neither has to import the other.
package userctx

import "context"

type subjectKey struct{}

// WithUserID stores the token subject. An empty subject is not stored.
func WithUserID(ctx context.Context, subject string) context.Context {
	if subject == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey{}, subject)
}

// GetUserID returns the subject set by the auth middleware, if any.
func GetUserID(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}
