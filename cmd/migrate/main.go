package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/logger"
)

// Migration runner. Usage:
//
//	migrate -dir ./migrations up
//	migrate down
//	migrate -seed up
//	migrate to 1
func main() {
	log := logger.NewLogger()
	defer log.Close()

	dir := flag.String("dir", "./migrations", "directory containing migration files")
	seed := flag.Bool("seed", false, "include seed data migrations")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Username,
			cfg.Database.Password, cfg.Database.Database)
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: *dir,
		AutoMigrate:   false,
		SeedData:      *seed,
	}, log)
	defer runner.Close()

	command := flag.Arg(0)
	switch command {
	case "up", "":
		if *seed {
			err = runner.MigrateUp()
		} else {
			err = runner.RunMigrations()
		}
	case "down":
		err = runner.MigrateDown()
	case "to":
		var version uint
		if _, scanErr := fmt.Sscanf(flag.Arg(1), "%d", &version); scanErr != nil {
			log.Fatal("MIGRATE", "usage: migrate to <version>")
		}
		err = runner.MigrateTo(version)
	default:
		log.Fatal("MIGRATE", fmt.Sprintf("unknown command %q (want up, down, or to)", command))
	}

	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Migration failed: %v", err))
	}

	log.Info("MIGRATE", "Migration complete")
}
