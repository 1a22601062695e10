package main

import (
	"database/sql"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pickup-route-service/internal/adapters/repositories"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/platform/db"
)

// dbtool prepares a Postgres instance: schema plus roster seed data.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open postgres")
	}
	defer pg.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/roster.json")
	initAndSeed(pg, seedPath)
}

func initAndSeed(pg *sql.DB, seedPath string) {
	log.Info().Msg("Initializing database schema...")
	if err := repositories.InitSchemaPostgres(pg); err != nil {
		log.Fatal().Err(err).Msg("Schema initialization failed")
	}
	log.Info().Msg("Schema ready.")

	log.Info().Str("path", seedPath).Msg("Seeding database...")
	if err := repositories.SeedFromJSONPostgres(pg, seedPath); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	log.Info().Msg("Seeding complete.")
}
