package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/allowance/internal/database"
	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Wednesday 12 March 2025, 10:00 UTC.
var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db        *sqlx.DB
	svc       *Service
	clock     *fakeClock
	events    *events.Collector
	loc       *time.Location
	household int64
	member    int64
	routine   int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvDSN(t, ":memory:")
}

// newFileTestEnv uses a database file so that concurrent callers get their
// own connections.
func newFileTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvDSN(t, filepath.Join(t.TempDir(), "ledger.db"))
}

func newTestEnvDSN(t *testing.T, dsn string) *testEnv {
	t.Helper()
	return newTestEnvAt(t, dsn, time.UTC, testNow)
}

// newTestEnvAt runs the household in loc with the clock starting at now.
func newTestEnvAt(t *testing.T, dsn string, loc *time.Location, now time.Time) *testEnv {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	h, err := store.NewHouseholdStore(db).Create(ctx, "Home")
	require.NoError(t, err)
	m, err := store.NewMemberStore(db).Create(ctx, h.ID, "Kid", model.RoleChild)
	require.NoError(t, err)
	r, err := store.NewTaskStore(db).CreateRoutine(ctx, h.ID, "Morning")
	require.NoError(t, err)

	env := &testEnv{
		db:        db,
		clock:     &fakeClock{now: now},
		events:    &events.Collector{},
		loc:       loc,
		household: h.ID,
		member:    m.ID,
		routine:   r.ID,
	}
	env.svc = New(db, Options{
		Location: loc,
		Clock:    env.clock,
		Notifier: env.events,
	})
	return env
}

func (e *testEnv) task(t *testing.T, in store.TaskInput) *model.Task {
	t.Helper()
	if in.Kind == "" {
		in.Kind = model.TaskBonus
	}
	task, err := store.NewTaskStore(e.db).Create(context.Background(), e.household, in)
	require.NoError(t, err)
	return task
}

func (e *testEnv) bonus(t *testing.T, name string, cents int64) *model.Task {
	t.Helper()
	return e.task(t, store.TaskInput{Name: name, ValueCents: cents})
}

func (e *testEnv) routineTask(t *testing.T, name string, schedule model.Weekdays) *model.Task {
	t.Helper()
	return e.task(t, store.TaskInput{RoutineID: &e.routine, Name: name, Kind: model.TaskRoutine, Schedule: schedule})
}

func (e *testEnv) today() model.Date {
	return model.DateOf(e.clock.Now(), e.loc)
}

func (e *testEnv) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := e.svc.Balances.GetBalance(context.Background(), e.member)
	require.NoError(t, err)
	return b
}

func (e *testEnv) transactions(t *testing.T) []model.BalanceTransaction {
	t.Helper()
	txs, err := e.svc.Balances.Transactions(context.Background(), e.member, 0)
	require.NoError(t, err)
	return txs
}

func (e *testEnv) completionCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM completions`))
	return n
}

func (e *testEnv) requireReconciled(t *testing.T) {
	t.Helper()
	_, err := e.svc.Balances.Reconcile(context.Background(), e.member)
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
