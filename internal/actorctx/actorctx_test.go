package actorctx

import (
	"context"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("expected no user on empty context")
	}
	if _, ok := UserIDFrom(WithUserID(context.Background(), "")); ok {
		t.Fatalf("empty user id should not count")
	}

	ctx := WithRole(WithUserID(context.Background(), "u1"), "buyer")
	if id, ok := UserIDFrom(ctx); !ok || id != "u1" {
		t.Fatalf("unexpected user %q %v", id, ok)
	}
	if RoleFrom(ctx) != "buyer" {
		t.Fatalf("unexpected role %q", RoleFrom(ctx))
	}
}
