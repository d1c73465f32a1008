package userctx

import (
	"context"
	"testing"
)

func TestSubjectRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")
	got, ok := GetUserID(ctx)
	if !ok || got != "user-1" {
		t.Fatalf("expected user-1, got %q (ok=%v)", got, ok)
	}
}

func TestEmptySubjectIgnored(t *testing.T) {
	ctx := WithUserID(context.Background(), "")
	if _, ok := GetUserID(ctx); ok {
		t.Fatal("expected no subject for empty id")
	}
	if _, ok := GetUserID(context.Background()); ok {
		t.Fatal("expected no subject on bare context")
	}
}
