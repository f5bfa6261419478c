package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
)

type TaskStore struct {
	db sqlx.ExtContext
}

func NewTaskStore(db sqlx.ExtContext) *TaskStore {
	return &TaskStore{db: db}
}

// --- Routine methods ---

const routineCols = `id, household_id, name, created_at`

type routineRow struct {
	ID          int64     `db:"id"`
	HouseholdID int64     `db:"household_id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r routineRow) toModel() model.Routine {
	return model.Routine{ID: r.ID, HouseholdID: r.HouseholdID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func (s *TaskStore) CreateRoutine(ctx context.Context, householdID int64, name string) (*model.Routine, error) {
	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(
		`INSERT INTO routines (household_id, name) VALUES (?, ?) RETURNING id`), householdID, name)
	if err != nil {
		return nil, fmt.Errorf("insert routine: %w", err)
	}
	return s.GetRoutine(ctx, id)
}

func (s *TaskStore) GetRoutine(ctx context.Context, id int64) (*model.Routine, error) {
	var r routineRow
	err := sqlx.GetContext(ctx, s.db, &r, s.db.Rebind(`SELECT `+routineCols+` FROM routines WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get routine: %w", err)
	}
	m := r.toModel()
	return &m, nil
}

func (s *TaskStore) ListRoutines(ctx context.Context, householdID int64) ([]model.Routine, error) {
	var rows []routineRow
	err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(
		`SELECT `+routineCols+` FROM routines WHERE household_id = ? ORDER BY name ASC`), householdID)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	routines := make([]model.Routine, 0, len(rows))
	for _, r := range rows {
		routines = append(routines, r.toModel())
	}
	return routines, nil
}

// --- Task methods ---

const taskCols = `id, household_id, routine_id, name, kind, value_cents, schedule_mask, window_start, window_end, created_at, updated_at`

type taskRow struct {
	ID          int64          `db:"id"`
	HouseholdID int64          `db:"household_id"`
	RoutineID   *int64         `db:"routine_id"`
	Name        string         `db:"name"`
	Kind        string         `db:"kind"`
	ValueCents  int64          `db:"value_cents"`
	Schedule    model.Weekdays `db:"schedule_mask"`
	WindowStart string         `db:"window_start"`
	WindowEnd   string         `db:"window_end"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r taskRow) toModel() model.Task {
	return model.Task{
		ID:          r.ID,
		HouseholdID: r.HouseholdID,
		RoutineID:   r.RoutineID,
		Name:        r.Name,
		Kind:        model.TaskKind(r.Kind),
		Value:       money.FromCents(r.ValueCents),
		Schedule:    r.Schedule,
		WindowStart: r.WindowStart,
		WindowEnd:   r.WindowEnd,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// TaskInput holds the editable attributes of a task. Callers validate it
// before it reaches the store.
type TaskInput struct {
	RoutineID   *int64
	Name        string
	Kind        model.TaskKind
	ValueCents  int64
	Schedule    model.Weekdays
	WindowStart string
	WindowEnd   string
}

func (s *TaskStore) Create(ctx context.Context, householdID int64, in TaskInput) (*model.Task, error) {
	now := time.Now().UTC()
	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(
		`INSERT INTO tasks (household_id, routine_id, name, kind, value_cents, schedule_mask, window_start, window_end, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		householdID, in.RoutineID, in.Name, string(in.Kind), in.ValueCents, in.Schedule,
		in.WindowStart, in.WindowEnd, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) Update(ctx context.Context, id int64, in TaskInput) (*model.Task, error) {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE tasks SET routine_id = ?, name = ?, kind = ?, value_cents = ?, schedule_mask = ?,
		 window_start = ?, window_end = ?, updated_at = ? WHERE id = ?`),
		in.RoutineID, in.Name, string(in.Kind), in.ValueCents, in.Schedule,
		in.WindowStart, in.WindowEnd, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	var r taskRow
	err := sqlx.GetContext(ctx, s.db, &r, s.db.Rebind(`SELECT `+taskCols+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	t := r.toModel()
	return &t, nil
}

func (s *TaskStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Task, error) {
	return s.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY name ASC`, householdID)
}

func (s *TaskStore) ListByRoutine(ctx context.Context, routineID int64) ([]model.Task, error) {
	return s.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE routine_id = ? ORDER BY name ASC`, routineID)
}

func (s *TaskStore) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// Delete removes a task. A task that has completions is part of the ledger
// history and cannot be deleted; Delete returns ErrInUse for it.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if isForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
