package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		MemberID:    1,
		HouseholdID: 2,
		Role:        "parent",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.MemberID != 1 {
		t.Errorf("MemberID = %d, want 1", got.MemberID)
	}
	if got.HouseholdID != 2 {
		t.Errorf("HouseholdID = %d, want 2", got.HouseholdID)
	}
	if got.Role != "parent" {
		t.Errorf("Role = %q, want %q", got.Role, "parent")
	}
	if !IsParent(ctx) {
		t.Error("expected IsParent")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
	if HouseholdID(context.Background()) != 0 {
		t.Error("expected zero household")
	}
	if MemberID(context.Background()) != 0 {
		t.Error("expected zero member")
	}
	if IsParent(context.Background()) {
		t.Error("expected IsParent false")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ac := AuthContext{MemberID: 7, HouseholdID: 3, Role: "child"}
	token, err := IssueToken("secret", ac, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := VerifyToken("secret", token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	ac := AuthContext{MemberID: 7, HouseholdID: 3, Role: "child"}

	wrongKey, _ := IssueToken("other", ac, time.Hour)
	if _, err := VerifyToken("secret", wrongKey); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong key: err = %v, want ErrInvalidToken", err)
	}

	expired, _ := IssueToken("secret", ac, -time.Minute)
	if _, err := VerifyToken("secret", expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v, want ErrInvalidToken", err)
	}

	if _, err := VerifyToken("secret", "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v, want ErrInvalidToken", err)
	}

	noMember, _ := IssueToken("secret", AuthContext{HouseholdID: 3}, time.Hour)
	if _, err := VerifyToken("secret", noMember); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("no member: err = %v, want ErrInvalidToken", err)
	}
}
