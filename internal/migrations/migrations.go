package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Apply runs every .sql file in dir, in lexical order, that has not been
// recorded in schema_migrations yet. Each file runs inside one transaction
// together with its bookkeeping row.
func Apply(database *sqlx.DB, dir string) error {
	if err := ensureTable(database); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	applied := map[string]bool{}
	recorded := []string{}
	if err := database.Select(&recorded, `SELECT name FROM schema_migrations`); err != nil {
		return err
	}
	for _, name := range recorded {
		applied[name] = true
	}

	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := applyOne(database, dir, name); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

func ensureTable(database *sqlx.DB) error {
	_, err := database.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  name TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

func applyOne(database *sqlx.DB, dir, name string) error {
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	tx, err := database.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
