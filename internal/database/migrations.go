package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// migration is one versioned schema change loaded from disk.
type migration struct {
	version int
	name    string
	sql     string
}

// Migrator applies versioned .sql files from a directory. Applied
// versions are tracked in a migrations table, so reruns are no-ops.
type Migrator struct {
	db  *sql.DB
	dir string
}

// NewMigrator returns a Migrator reading migration files from dir.
// Files must be named NNN_description.sql; anything else is skipped.
func NewMigrator(db *sql.DB, dir string) *Migrator {
	return &Migrator{db: db, dir: dir}
}

// Up applies every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	migrations, err := m.load()
	if err != nil {
		return err
	}

	ran := 0
	for _, mig := range migrations {
		if applied[mig.version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return err
		}
		ran++
	}

	if ran == 0 {
		log.Println("[Database] schema up to date")
	} else {
		log.Printf("[Database] applied %d migration(s)", ran)
	}
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) load() ([]migration, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		var rest string
		if _, err := fmt.Sscanf(entry.Name(), "%d_%s", &version, &rest); err != nil {
			log.Printf("[Database] skipping migration with unversioned name: %s", entry.Name())
			continue
		}

		content, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, migration{
			version: version,
			name:    strings.TrimSuffix(entry.Name(), ".sql"),
			sql:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

// apply runs one migration and records its version in the same
// transaction, so a failed statement leaves no bookkeeping behind.
func (m *Migrator) apply(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, mig.sql); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d failed: %w", mig.version, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (version, name) VALUES (?, ?)",
		mig.version, mig.name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", mig.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", mig.version, err)
	}

	log.Printf("[Database] applied migration %d: %s", mig.version, mig.name)
	return nil
}
