package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type migrationFile struct {
	version string
	path    string
}

// ApplyMigrations runs every *.up.sql in migrationsDir that has not been
// recorded in schema_migrations, in file name order, one transaction each.
func ApplyMigrations(ctx context.Context, db *sql.DB, migrationsDir string) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	files, err := listMigrations(migrationsDir, ".up.sql")
	if err != nil {
		return err
	}

	for _, file := range files {
		if migrated, err := isMigrated(ctx, db, file.version); err != nil {
			return err
		} else if migrated {
			continue
		}

		err := runInTx(ctx, db, file, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, file.version)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// RollbackMigrations undoes the newest `steps` applied migrations using their
// *.down.sql counterparts. steps <= 0 rolls back everything.
func RollbackMigrations(ctx context.Context, db *sql.DB, migrationsDir string, steps int) (int, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return 0, err
	}

	files, err := listMigrations(migrationsDir, ".down.sql")
	if err != nil {
		return 0, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version > files[j].version })

	rolledBack := 0
	for _, file := range files {
		if steps > 0 && rolledBack >= steps {
			break
		}
		upVersion := strings.TrimSuffix(file.version, ".down.sql") + ".up.sql"
		migrated, err := isMigrated(ctx, db, upVersion)
		if err != nil {
			return rolledBack, err
		}
		if !migrated {
			continue
		}

		err = runInTx(ctx, db, file, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version=$1`, upVersion)
			return err
		})
		if err != nil {
			return rolledBack, err
		}
		rolledBack++
	}
	return rolledBack, nil
}

func listMigrations(migrationsDir, suffix string) ([]migrationFile, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, suffix) {
			files = append(files, migrationFile{version: name, path: filepath.Join(migrationsDir, name)})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

func runInTx(ctx context.Context, db *sql.DB, file migrationFile, record func(*sql.Tx) error) error {
	contents, err := os.ReadFile(file.path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file.version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx %s: %w", file.version, err)
	}

	if sqlText := strings.TrimSpace(string(contents)); sqlText != "" {
		if _, err := tx.ExecContext(ctx, sqlText); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", file.version, err)
		}
	}

	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file.version, err)
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

func isMigrated(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}
