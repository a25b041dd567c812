package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/file-drop/file-drop-backend/pkg/db"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func createMigrationFile(migrationName string) error {
	// datetime format in YYYYMMDDhhmmss - uses the reference time Mon Jan 2 15:04:05 MST 2006
	datetime := time.Now().Format("20060102150405")

	filenameUp := fmt.Sprintf("./db/migrations/%s_%s.up.sql", datetime, migrationName)
	filenameDown := fmt.Sprintf("./db/migrations/%s_%s.down.sql", datetime, migrationName)

	migrationTemplate := "" +
		"BEGIN;\n" +
		"-- your migration here\n" +
		"COMMIT;\n"

	for _, filename := range []string{filenameUp, filenameDown} {
		f, err := os.Create(filename)
		if err != nil {
			return err
		}
		if _, err = f.WriteString(migrationTemplate); err != nil {
			f.Close()
			return err
		}
		if err = f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	config.Load()
	config.ConfigureLogging()

	upMigrationCmd := flag.NewFlagSet("up", flag.ExitOnError)
	upMigrationSteps := upMigrationCmd.Int("steps", 0, "migrate up")

	downMigrationCmd := flag.NewFlagSet("down", flag.ExitOnError)
	downMigrationSteps := downMigrationCmd.Int("steps", 0, "migrate down")

	dbURL := db.GetUrl()

	args := os.Args
	if len(args) < 2 {
		log.Fatal().Msg("Requires arguments: up, down, or new.")
	}
	switch args[1] {
	case "new":
		if len(args) < 3 {
			log.Fatal().Msg("Requires a migration name.")
		}
		if err := createMigrationFile(args[2]); err != nil {
			log.Fatal().Err(err).Msg("Failed to create migration")
		}
	case "up":
		if err := upMigrationCmd.Parse(args[2:]); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate")
		}
		if err := db.MigrateDB(dbURL, "up", *upMigrationSteps); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate")
		}
		log.Debug().Msg("Successfully migrated up")
	case "down":
		if err := downMigrationCmd.Parse(args[2:]); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate")
		}
		if err := db.MigrateDB(dbURL, "down", *downMigrationSteps); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate")
		}
		log.Debug().Msg("Successfully migrated down")
	default:
		log.Fatal().Msgf("Unknown command %q, expected up, down, or new.", args[1])
	}
}
