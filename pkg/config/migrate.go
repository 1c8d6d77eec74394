package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// migrationsDir returns MIGRATIONS_DIR, defaulting to ./migrations
func migrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "migrations"
}

func newMigrate() (*migrate.Migrate, error) {
	db, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get database connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir(), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// ExecuteMigrations runs all pending database migrations
func ExecuteMigrations() {
	m, err := newMigrate()
	if err != nil {
		logrus.Fatal("Failed to prepare migrations: ", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logrus.Fatal("Failed to run migrations: ", err)
	}

	logrus.Info("Database migrations completed successfully")
}

// RollbackMigration rolls back the last migration
func RollbackMigration() {
	m, err := newMigrate()
	if err != nil {
		logrus.Fatal("Failed to prepare migrations: ", err)
	}

	if err := m.Steps(-1); err != nil {
		logrus.Fatal("Failed to rollback migration: ", err)
	}

	logrus.Info("Migration rolled back successfully")
}
