package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"partnerdispatch/internal/adapters/out/postgres/migrations"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a key/value connection string understood by both pgx and lib/pq.
func DSN(host string, port int, user, password, name, sslmode string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslmode)
}

// Open connects GORM to postgres. With migrate set the schema is brought up to
// date first through golang-migrate.
func Open(dsn string, migrate bool, log *slog.Logger) (*gorm.DB, error) {
	if migrate {
		if err := MigrateUp(dsn); err != nil {
			return nil, err
		}
		log.Info("database schema is up to date")
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func MigrateUp(dsn string) error {
	sqlDB, err := migrations.Open(dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return migrations.Up(sqlDB)
}

func MigrateDown(dsn string) error {
	sqlDB, err := migrations.Open(dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return migrations.Down(sqlDB)
}
