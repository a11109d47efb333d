// Command migrate applies or rolls back the PostgreSQL schema shared by
// the screener and collector services.
//
// Usage:
//
//	migrate up       apply all pending migrations
//	migrate down     roll everything back
//	migrate version  print the current schema version
//
// Database settings come from the screener config file. CONFIG_PATH and
// MIGRATIONS_PATH override the default locations.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/arassiq/SafeSenior/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: migrate <up|down|version>")
		return 1
	}
	command := os.Args[1]

	cfg, err := config.LoadScreener(config.GetConfigPath("config/screener.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	m, err := migrate.New(migrationsDir(), cfg.Database.URL())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrate instance: %v\n", err)
		return 1
	}
	defer func() { _, _ = m.Close() }()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		return printVersion(m)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (want up, down, or version)\n", command)
		return 1
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to apply")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", command, err)
		return 1
	}

	fmt.Printf("Migration %s completed successfully\n", command)
	return 0
}

// migrationsDir resolves the migration source, honouring MIGRATIONS_PATH.
func migrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_PATH"); dir != "" {
		return "file://" + dir
	}
	return "file://migrations"
}

func printVersion(m *migrate.Migrate) int {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied yet")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read schema version: %v\n", err)
		return 1
	}

	if dirty {
		fmt.Printf("Schema at version %d (dirty)\n", version)
	} else {
		fmt.Printf("Schema at version %d\n", version)
	}
	return 0
}
