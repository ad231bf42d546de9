package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// Migration is one versioned schema step.
type Migration struct {
	Version    string
	Name       string
	Statements []string
}

// MigrationRecord is the tracked state of one migration. AppliedAt is
// nil while the migration is still pending.
type MigrationRecord struct {
	Version   string
	Name      string
	AppliedAt *time.Time
}

// Migrator applies and tracks schema migrations. Applied versions are
// recorded in schema_migrations, and a PostgreSQL advisory lock keeps
// concurrent migrators from racing each other.
type Migrator struct {
	db     *runtime.DB
	lockID int64
}

// NewMigrator creates a Migrator over the built-in schema history.
func NewMigrator(db *runtime.DB) *Migrator {
	return &Migrator{db: db, lockID: 7235683}
}

func (m *Migrator) initialize(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) lock(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, "SELECT pg_advisory_lock($1)", m.lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	return nil
}

func (m *Migrator) unlock(ctx context.Context) error {
	var released bool
	if err := m.db.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", m.lockID).Scan(&released); err != nil {
		return fmt.Errorf("failed to release migration lock: %w", err)
	}
	if !released {
		return fmt.Errorf("migration lock was not held")
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]time.Time, error) {
	rows, err := m.db.Query(ctx, `SELECT version, applied_at FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var (
			version string
			at      time.Time
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

// apply runs one migration and records it, both inside one transaction.
func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	return m.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for i, stmt := range mig.Statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s failed at statement %d: %w", mig.Version, i+1, err)
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			mig.Version, mig.Name,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", mig.Version, err)
		}
		return nil
	})
}

// Up applies every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.initialize(ctx); err != nil {
		return err
	}
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.unlock(ctx)

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}
	for _, mig := range migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

// Status returns every migration in the history with its applied time,
// nil for pending ones.
func (m *Migrator) Status(ctx context.Context) ([]MigrationRecord, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]MigrationRecord, 0, len(migrations))
	for _, mig := range migrations {
		record := MigrationRecord{Version: mig.Version, Name: mig.Name}
		if at, ok := applied[mig.Version]; ok {
			t := at
			record.AppliedAt = &t
		}
		records = append(records, record)
	}
	return records, nil
}
