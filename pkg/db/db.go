package db

import (
	"database/sql"
	"fmt"

	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	pg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// GetUrl Get database config and return url
func GetUrl() string {
	dbConfig := config.Get().Database
	connectStr := fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d",
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Host,
		dbConfig.Port,
	)

	var sslStr string
	if dbConfig.CACertPath == "" {
		sslStr = " sslmode=disable"
	} else {
		sslStr = fmt.Sprintf(" sslmode=verify-full sslrootcert=%s", dbConfig.CACertPath)
	}
	return connectStr + sslStr
}

// Connect initializes global database connection, DB
func Connect() error {
	var err error

	level, parseErr := zerolog.ParseLevel(config.Get().Logging.Level)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}

	dbURL := GetUrl()
	DB, err = gorm.Open(pg.Open(dbURL), &gorm.Config{
		Logger: NewDBLogger(
			DBLogConfig{
				SlowThreshold:             config.Get().Database.SlowQueryDuration,
				LogLevel:                  zeroLogToGormLevel(level),
				IgnoreRecordNotFoundError: true,
				zeroLogger:                log.Logger,
			},
		),
	})

	if err != nil {
		return err
	}

	sqlDb, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDb.SetMaxOpenConns(config.Get().Database.PoolLimit)
	return nil
}

// Close closes global database connection, DB
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MigrateDB runs migrations up or down. Omit "steps" to run all migrations.
func MigrateDB(dbURL string, direction string, steps ...int) error {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not get database driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://./db/migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	var step int
	if steps != nil {
		step = steps[0]
	}

	switch direction {
	case "up":
		if step > 0 {
			err = m.Steps(step)
		} else {
			err = m.Up()
		}
	case "down":
		if step > 0 {
			err = m.Steps(-step)
		} else {
			err = m.Down()
		}
	}

	if err != nil && err == migrate.ErrNoChange {
		log.Debug().Msg("No new migrations.")
		return nil
	}
	return err
}
