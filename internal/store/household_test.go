package store

import (
	"context"
	"testing"

	"github.com/dukerupert/allowance/internal/database"
)

func setupHouseholdTestDB(t *testing.T) (*HouseholdStore, *MemberStore) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewMemberStore(db)
}

func TestHouseholdCreate(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.Create(context.Background(), "Test Household")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Test Household" {
		t.Errorf("name = %q, want %q", h.Name, "Test Household")
	}
	if h.ID == 0 {
		t.Error("expected non-zero ID")
	}
}

func TestHouseholdGetByIDNotFound(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if h != nil {
		t.Error("expected nil for nonexistent household")
	}
}

func TestMemberCreateAndList(t *testing.T) {
	hs, ms := setupHouseholdTestDB(t)
	ctx := context.Background()

	h, err := hs.Create(ctx, "Home")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := ms.Create(ctx, h.ID, "Zoe", "child"); err != nil {
		t.Fatalf("create member: %v", err)
	}
	parent, err := ms.Create(ctx, h.ID, "Alex", "parent")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if parent.HasPIN {
		t.Error("new member should not have a PIN")
	}

	members, err := ms.ListByHousehold(ctx, h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].Name != "Alex" {
		t.Errorf("members[0].Name = %q, want %q", members[0].Name, "Alex")
	}
}

func TestMemberCreateInvalidRole(t *testing.T) {
	hs, ms := setupHouseholdTestDB(t)
	ctx := context.Background()

	h, _ := hs.Create(ctx, "Home")
	if _, err := ms.Create(ctx, h.ID, "Sam", "admin"); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestMemberPIN(t *testing.T) {
	hs, ms := setupHouseholdTestDB(t)
	ctx := context.Background()

	h, _ := hs.Create(ctx, "Home")
	m, err := ms.Create(ctx, h.ID, "Alex", "parent")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	if err := ms.SetPIN(ctx, m.ID, "hashed"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	got, err := ms.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if !got.HasPIN {
		t.Error("expected HasPIN after SetPIN")
	}
	hash, err := ms.GetPINHash(ctx, m.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if hash != "hashed" {
		t.Errorf("hash = %q, want %q", hash, "hashed")
	}

	if err := ms.ClearPIN(ctx, m.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	got, _ = ms.GetByID(ctx, m.ID)
	if got.HasPIN {
		t.Error("expected no PIN after ClearPIN")
	}
}
