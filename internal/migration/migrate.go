package migration

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"time"
)

const migrationsTable = "schema_migrations"

// RunMigrations applies every embedded *.up.sql file that has not been
// recorded in schema_migrations yet, in lexical order.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("missing database connection")
	}
	if err := ensureTable(db); err != nil {
		return err
	}
	applied, err := listApplied(db)
	if err != nil {
		return err
	}
	names, err := listEmbedded()
	if err != nil {
		return err
	}
	for _, name := range names {
		if applied[name] {
			continue
		}
		script, err := embeddedMigrations.ReadFile(migrationsDir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if err := record(db, name); err != nil {
			return err
		}
	}
	return nil
}

func ensureTable(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL)`,
		migrationsTable,
	))
	return err
}

func listApplied(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT name FROM %s`, migrationsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func listEmbedded() ([]string, error) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func record(db *sql.DB, name string) error {
	_, err := db.Exec(fmt.Sprintf(`INSERT INTO %s (name, applied_at) VALUES ($1, $2)`, migrationsTable),
		name, time.Now().UTC())
	return err
}
