package cmd

import (
	"errors"
	"fmt"
	"log"

	"golang-watchlist/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

const migrationsSource = "file://migrations"

func postgresDSN(db config.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.DBName,
		db.SSLMode)
}

func runMigrations(apply func(*migrate.Migrate) error, doneMsg string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, err := migrate.New(migrationsSource, postgresDSN(cfg.DB))
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("Migration close: source=%v database=%v", srcErr, dbErr)
		}
	}()

	if err := apply(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("Watchlist schema already up to date.")
			return
		}
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println(doneMsg)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending watchlist schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations(func(m *migrate.Migrate) error { return m.Up() }, "Watchlist schema migrated.")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the last watchlist schema migration",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations(func(m *migrate.Migrate) error { return m.Steps(-1) }, "Reverted last schema migration.")
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the daily_stocks schema",
}

func init() {
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
}
