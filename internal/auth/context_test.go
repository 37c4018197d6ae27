package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserIDRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithUserID(context.Background(), id)

	got, ok := UserIDFromContext(ctx)
	if !ok {
		t.Fatal("expected user id in context")
	}
	if got != id {
		t.Fatalf("user id mismatch, got %s want %s", got, id)
	}
}

func TestUserIDMissing(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("expected no user id in empty context")
	}
}

func TestUserIDNilRejected(t *testing.T) {
	ctx := WithUserID(context.Background(), uuid.Nil)
	if _, ok := UserIDFromContext(ctx); ok {
		t.Fatal("expected nil user id to be treated as absent")
	}
}
