package shared

import (
	"testing"
)

func TestSchemaMigrations(t *testing.T) {
	t.Run("loadSchemaVersions", func(t *testing.T) {
		versions, err := loadSchemaVersions()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(versions) == 0 {
			t.Fatal("expected at least one schema version")
		}

		for i := 1; i < len(versions); i++ {
			if versions[i].Version <= versions[i-1].Version {
				t.Errorf("versions not sorted: %d comes after %d", versions[i].Version, versions[i-1].Version)
			}
		}

		for _, v := range versions {
			if v.Up == "" || v.Down == "" {
				t.Errorf("version %d is missing a script", v.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		if _, err := db.Exec("SELECT 1 FROM runs LIMIT 1"); err != nil {
			t.Errorf("runs table should exist after migrations: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM run_cards LIMIT 1"); err != nil {
			t.Errorf("run_cards table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount); err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("Rollback with nothing applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		for {
			var n int
			db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n)
			if n == 0 {
				break
			}
			if err := RollbackMigration(db); err != nil {
				t.Fatalf("rollback failed: %v", err)
			}
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		versions, _ := loadSchemaVersions()
		if count != len(versions) {
			t.Errorf("expected %d migrations to be applied, got %d", len(versions), count)
		}
	})
}
