package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/database"
	"github.com/dukerupert/allowance/internal/model"
)

type fixture struct {
	db          *sqlx.DB
	householdID int64
	memberID    int64
	routineID   int64
}

// setupFixture opens an in-memory database with one household, one child
// and one routine.
func setupFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	h, err := NewHouseholdStore(db).Create(ctx, "Home")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	m, err := NewMemberStore(db).Create(ctx, h.ID, "Kid", model.RoleChild)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	r, err := NewTaskStore(db).CreateRoutine(ctx, h.ID, "Morning")
	if err != nil {
		t.Fatalf("create routine: %v", err)
	}
	return fixture{db: db, householdID: h.ID, memberID: m.ID, routineID: r.ID}
}

func (f fixture) createTask(t *testing.T, name string, valueCents int64) *model.Task {
	t.Helper()
	task, err := NewTaskStore(f.db).Create(context.Background(), f.householdID, TaskInput{
		Name:       name,
		Kind:       model.TaskBonus,
		ValueCents: valueCents,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}
