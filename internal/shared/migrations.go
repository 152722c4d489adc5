package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// SchemaVersion is one numbered pair of up/down scripts from the sql directory.
//
// Files are named NNNN_description_up.sql and NNNN_description_down.sql.
type SchemaVersion struct {
	Version int
	Up      string
	Down    string
}

// loadSchemaVersions reads the embedded scripts and returns them in ascending version order.
func loadSchemaVersions() ([]SchemaVersion, error) {
	entries, err := schemaFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	byVersion := make(map[int]*SchemaVersion)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, found := strings.Cut(name, "_")
		if !found {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		content, err := schemaFiles.ReadFile(path.Join("sql", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", name, err)
		}

		sv, ok := byVersion[version]
		if !ok {
			sv = &SchemaVersion{Version: version}
			byVersion[version] = sv
		}

		switch {
		case strings.HasSuffix(name, "_up.sql"):
			sv.Up = string(content)
		case strings.HasSuffix(name, "_down.sql"):
			sv.Down = string(content)
		}
	}

	versions := make([]SchemaVersion, 0, len(byVersion))
	for _, sv := range byVersion {
		if sv.Up == "" || sv.Down == "" {
			return nil, fmt.Errorf("incomplete schema version %d", sv.Version)
		}
		versions = append(versions, *sv)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })

	return versions, nil
}

// RunMigrations applies every schema version not yet recorded in schema_migrations.
func RunMigrations(db *sql.DB) error {
	versions, err := loadSchemaVersions()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, sv := range versions {
		var applied bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", sv.Version).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			continue
		}

		err := inTx(db, func(tx *sql.Tx) error {
			if err := execScript(tx, sv.Up); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", sv.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", sv.Version, err)
		}
	}

	return nil
}

// RollbackMigration reverts the most recently applied schema version.
func RollbackMigration(db *sql.DB) error {
	versions, err := loadSchemaVersions()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if !current.Valid {
		return fmt.Errorf("no migrations to rollback")
	}

	for _, sv := range versions {
		if int64(sv.Version) != current.Int64 {
			continue
		}
		return inTx(db, func(tx *sql.Tx) error {
			if err := execScript(tx, sv.Down); err != nil {
				return err
			}
			_, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", sv.Version)
			return err
		})
	}

	return fmt.Errorf("migration version %d not found", current.Int64)
}

func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// execScript runs each ;-separated statement of script, skipping comment-only fragments.
func execScript(tx *sql.Tx, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = stripComments(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

func stripComments(stmt string) string {
	var kept []string
	for _, line := range strings.Split(stmt, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
