// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for the Botship fleet
// database. It abstracts the underlying engine (SQLite, PostgreSQL,
// MySQL) behind a consistent Store interface, so the rest of the
// application interacts with targets, pinned host keys, and the audit
// trail in a uniform way.
package db // import "github.com/botship/botship/internal/db"

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/botship/botship/internal/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	// SQL drivers required for the alternative backends.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	store Store

	//go:embed migrations
	embeddedMigrations embed.FS

	// sqlOpenFunc allows tests to override database opening behavior.
	sqlOpenFunc = sql.Open
)

// Store is the interface the fleet database implements for every backend.
type Store interface {
	// Targets
	GetAllTargets() ([]model.Target, error)
	GetAllActiveTargets() ([]model.Target, error)
	GetTarget(username, hostname string) (*model.Target, error)
	AddTarget(t model.Target) (int, error)
	DeleteTarget(username, hostname string) error

	// Known hosts
	GetKnownHostKey(hostname string) (string, error)
	SetKnownHostKey(hostname, key string) error

	// Audit trail
	LogAction(action, details string) error
	GetAuditLog(limit int) ([]model.AuditLogEntry, error)

	// Deployment history
	RecordDeployment(rec model.DeploymentRecord) error
	GetDeployments(limit int) ([]model.DeploymentRecord, error)

	// Backup
	ExportBackup() (*model.BackupData, error)
	ImportBackup(data *model.BackupData) error
}

// AuditWriter is the narrow interface deployment code uses to write audit
// entries; it lets tests inject a fake without a database.
type AuditWriter interface {
	LogAction(action, details string) error
}

// InitDB initializes the database connection based on the provided type and
// DSN. It sets the package-level store and runs any pending migrations.
func InitDB(dbType, dsn string) error {
	s, err := NewStoreFromDSN(dbType, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	store = s
	return nil
}

// IsInitialized reports whether the package-level store has been set.
func IsInitialized() bool {
	return store != nil
}

// SetStore replaces the package-level store. Intended for tests.
func SetStore(s Store) {
	store = s
}

// NewStoreFromDSN opens a sql.DB for the given DSN, runs migrations, and
// returns a Store backed by a long-lived *bun.DB.
func NewStoreFromDSN(dbType, dsn string) (Store, error) {
	driverName := dbType
	// The pgx stdlib registers driver name "pgx"; map "postgres" to it.
	if dbType == "postgres" {
		driverName = "pgx"
	}
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// For in-memory SQLite force a single connection; each connection
	// would otherwise see its own empty database.
	if dbType == "sqlite" && strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	if err := RunMigrations(sqlDB, dbType); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	bunDB := createBunDB(sqlDB, dbType)
	switch dbType {
	case "sqlite":
		return &SqliteStore{bunStore{bun: bunDB}}, nil
	case "postgres":
		return &PostgresStore{bunStore{bun: bunDB}}, nil
	case "mysql":
		return &MySQLStore{bunStore{bun: bunDB}}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: '%s'", dbType)
	}
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// RunMigrations applies the embedded migrations for the given database type.
// Applied versions are tracked in schema_migrations.
func RunMigrations(db *sql.DB, dbType string) error {
	migrationsPath := fmt.Sprintf("migrations/%s", dbType)

	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// No migrations embedded for this DB type.
			return nil
		}
		return fmt.Errorf("failed to read embedded migrations (%s): %w", migrationsPath, err)
	}

	var ups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	if err := ensureSchemaMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		var exists int
		query := "SELECT 1 FROM schema_migrations WHERE version = ?"
		if dbType == "postgres" {
			query = "SELECT 1 FROM schema_migrations WHERE version = $1"
		}
		err := db.QueryRow(query, version).Scan(&exists)
		if err == nil {
			continue // already applied
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check migration version %s: %w", version, err)
		}

		data, err := embeddedMigrations.ReadFile(path.Join(migrationsPath, fname))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", fname, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", version, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", version, err)
		}

		insertQuery := "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)"
		if dbType == "postgres" {
			insertQuery = "INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2)"
		}
		if _, err := tx.Exec(insertQuery, version, time.Now()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", version, err)
		}
	}

	return nil
}

// ensureSchemaMigrationsTable creates schema_migrations if missing.
func ensureSchemaMigrationsTable(db *sql.DB, dbType string) error {
	// MySQL does not permit TEXT primary keys without a length, so use a
	// VARCHAR with a safe length there.
	if dbType == "mysql" {
		_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP)`)
		return err
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`)
	return err
}

// Package-level helpers delegating to the active store.

// GetAllTargets retrieves every target from the fleet database.
func GetAllTargets() ([]model.Target, error) {
	return store.GetAllTargets()
}

// GetAllActiveTargets retrieves the targets marked active.
func GetAllActiveTargets() ([]model.Target, error) {
	return store.GetAllActiveTargets()
}

// GetTarget looks up a single target by username and hostname. It returns
// nil (and no error) when the target does not exist.
func GetTarget(username, hostname string) (*model.Target, error) {
	return store.GetTarget(username, hostname)
}

// AddTarget adds a new target and returns its ID.
func AddTarget(t model.Target) (int, error) {
	return store.AddTarget(t)
}

// DeleteTarget removes a target from the fleet database.
func DeleteTarget(username, hostname string) error {
	return store.DeleteTarget(username, hostname)
}

// GetKnownHostKey returns the pinned public key for a host, or "" when the
// host has not been trusted yet.
func GetKnownHostKey(hostname string) (string, error) {
	return store.GetKnownHostKey(hostname)
}

// SetKnownHostKey pins (or replaces) a host's public key.
func SetKnownHostKey(hostname, key string) error {
	return store.SetKnownHostKey(hostname, key)
}

// LogAction writes an entry to the audit trail.
func LogAction(action, details string) error {
	return store.LogAction(action, details)
}

// GetAuditLog returns the most recent audit entries, newest first. A
// non-positive limit returns everything.
func GetAuditLog(limit int) ([]model.AuditLogEntry, error) {
	return store.GetAuditLog(limit)
}

// RecordDeployment writes a per-file deployment history row.
func RecordDeployment(rec model.DeploymentRecord) error {
	return store.RecordDeployment(rec)
}

// GetDeployments returns the most recent deployment rows, newest first.
func GetDeployments(limit int) ([]model.DeploymentRecord, error) {
	return store.GetDeployments(limit)
}

// ExportBackup dumps the whole database for the backup command.
func ExportBackup() (*model.BackupData, error) {
	return store.ExportBackup()
}

// ImportBackup loads a backup dump into the database.
func ImportBackup(data *model.BackupData) error {
	return store.ImportBackup(data)
}

// DefaultAuditWriter returns the active store as an AuditWriter, or nil
// when the database has not been initialized.
func DefaultAuditWriter() AuditWriter {
	if store == nil {
		return nil
	}
	return store
}
