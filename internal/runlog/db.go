// Package runlog records per-cycle diagnostics of each run in SQLite.
package runlog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/racecore/internal/monitoring"
	"github.com/banshee-data/racecore/internal/version"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultFlushEvery is how many cycles are buffered before they are written
// in one transaction.
const DefaultFlushEvery = 30

// DB is the run log database.
type DB struct {
	*sql.DB
	path string

	mu         sync.Mutex // guards the fields below
	runID      int64
	pending    []CycleRecord
	flushEvery int
}

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{DB: sqlDB, path: path, flushEvery: DefaultFlushEvery}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SetFlushEvery sets how many cycles are buffered per write. Values below 1
// write every cycle.
func (db *DB) SetFlushEvery(n int) {
	if n < 1 {
		n = 1
	}
	db.mu.Lock()
	db.flushEvery = n
	db.mu.Unlock()
}

// MigrateUp runs all pending migrations up to the latest version.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// Note: m is not closed because that would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
func (db *DB) MigrateVersion() (uint, bool, error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// Run is one row of the runs table.
type Run struct {
	ID        int64
	StartedAt time.Time
	EndedAt   time.Time // zero while the run is active
	Version   string
	Notes     string
}

// StartRun ends any active run and starts a new one that subsequent frames
// are recorded against.
func (db *DB) StartRun(now time.Time, notes string) (int64, error) {
	if err := db.EndRun(now); err != nil {
		return 0, err
	}
	res, err := db.Exec(`INSERT INTO runs (started_at, version, notes) VALUES (?, ?, ?)`,
		now.UnixNano(), version.Version, notes)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	db.mu.Lock()
	db.runID = id
	db.mu.Unlock()
	diagf("run %d started", id)
	return id, nil
}

// EndRun flushes buffered cycles and closes the active run, if any.
func (db *DB) EndRun(now time.Time) error {
	db.mu.Lock()
	id := db.runID
	db.runID = 0
	db.mu.Unlock()
	if id == 0 {
		return nil
	}
	if err := db.Flush(); err != nil {
		return err
	}
	if _, err := db.Exec(`UPDATE runs SET ended_at = ? WHERE run_id = ?`, now.UnixNano(), id); err != nil {
		return fmt.Errorf("end run %d: %w", id, err)
	}
	diagf("run %d ended", id)
	return nil
}

// RunID returns the active run, or 0 when none is active.
func (db *DB) RunID() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.runID
}

// Runs returns every run, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, started_at, ended_at, version, notes FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		var ended sql.NullInt64
		if err := rows.Scan(&r.ID, &started, &ended, &r.Version, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		if ended.Valid {
			r.EndedAt = time.Unix(0, ended.Int64)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close ends the active run and closes the database.
func (db *DB) Close() error {
	if err := db.EndRun(time.Now()); err != nil {
		opsf("%v", err)
	}
	return db.DB.Close()
}
