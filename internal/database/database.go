package database

import (
	"embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// dialects maps database drivers to goose dialect names and migration dirs.
var dialects = map[string]struct{ goose, dir string }{
	DriverSQLite:   {"sqlite3", "migrations/sqlite"},
	DriverPostgres: {"postgres", "migrations/postgres"},
}

func init() {
	// sqlx does not know modernc's driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database for driver and runs migrations.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, "up"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Connect opens and pings the database without touching the schema.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	memory := driver == DriverSQLite && strings.HasPrefix(dsn, ":memory:")
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn, memory)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if memory {
		// every pooled connection to :memory: would be its own database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// sqliteDefaults are the connection params the stores rely on, keyed by the
// pragma or option they set. _txlock=immediate makes every transaction take
// the write lock up front, which serializes read-modify-write sequences
// without lock upgrades.
var sqliteDefaults = []struct{ key, param string }{
	{"foreign_keys", "_pragma=foreign_keys(1)"},
	{"busy_timeout", "_pragma=busy_timeout(5000)"},
	{"_txlock", "_txlock=immediate"},
	{"journal_mode", "_pragma=journal_mode(WAL)"},
}

// sqliteDSN appends every default the caller's DSN does not already set.
// Params the caller passes win. In-memory databases skip WAL.
func sqliteDSN(dsn string, memory bool) string {
	base, query, _ := strings.Cut(dsn, "?")
	vals, err := url.ParseQuery(query)
	if err != nil {
		vals = url.Values{}
	}

	set := map[string]bool{}
	for key := range vals {
		set[strings.ToLower(key)] = true
	}
	for _, p := range vals["_pragma"] {
		name, _, _ := strings.Cut(p, "(")
		name, _, _ = strings.Cut(name, "=")
		set[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var params []string
	if query != "" {
		params = append(params, query)
	}
	for _, d := range sqliteDefaults {
		if set[d.key] || (memory && d.key == "journal_mode") {
			continue
		}
		params = append(params, d.param)
	}
	if len(params) == 0 {
		return base
	}
	return base + "?" + strings.Join(params, "&")
}

// Migrate runs goose in the given direction: "up", "down" or "status".
func Migrate(db *sqlx.DB, direction string) error {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("unsupported driver %q", db.DriverName())
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	var err error
	switch direction {
	case "up":
		err = goose.Up(db.DB, d.dir)
	case "down":
		err = goose.Down(db.DB, d.dir)
	case "status":
		err = goose.Status(db.DB, d.dir)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", direction, err)
	}
	return nil
}
