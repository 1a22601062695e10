package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"pickup-route-service/internal/adapters/cache"
	"pickup-route-service/internal/adapters/notify"
	"pickup-route-service/internal/adapters/repositories"
	"pickup-route-service/internal/api"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/platform/db"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Postgres, Redis) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}
	setupLogging()

	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/roster.json")
	port := config.Get("PORT", "8080")

	sqliteDB, err := openDB(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer sqliteDB.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(sqliteDB, seedPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database")
	}

	roster := repositories.NewSqliteRoster(sqliteDB)
	absences := repositories.NewSqliteAbsences(sqliteDB)
	routes := repositories.NewSqliteRouteRepository(sqliteDB)
	store := repositories.NewSqliteSessionStore(sqliteDB)
	history := repositories.NewSqliteHistorySink(sqliteDB)

	// Fixes can be redirected to Postgres so the position stream outlives
	// the node-local database.
	var fixes ports.FixLog = repositories.NewSqliteFixLog(sqliteDB)
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open postgres")
		}
		defer pg.Close()
		fixes = repositories.NewSQLFixLog(pg)
		log.Info().Msg("Location fixes stored in Postgres")
	}

	var live ports.LiveCache
	if addr := os.Getenv("REDIS_ADDR"); strings.TrimSpace(addr) != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer client.Close()
		live = cache.NewRedisLiveCache(client)
		log.Info().Str("addr", addr).Msg("Live tracking cache enabled")
	}

	sessions := services.NewSessionManager(store, routes, roster, absences, history, fixes, nil)
	tracker := services.NewTracker(store, routes, fixes, live, notify.NewLogNotifier(),
		services.DefaultTrackerConfig(), nil)

	router := api.NewRouter(api.Dependencies{
		Roster:   roster,
		Routes:   routes,
		Store:    store,
		Fixes:    fixes,
		Live:     live,
		Sessions: sessions,
		Tracker:  tracker,
	})

	log.Info().Str("addr", ":"+port).Msg("Server listening")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal().Err(srv.ListenAndServe()).Msg("Server stopped")
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.Get("LOG_FORMAT", "console") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openDB(dbPath string) (*sql.DB, error) {
	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := sqliteDB.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return sqliteDB, nil
}

func initAndSeed(sqliteDB *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(sqliteDB); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(sqliteDB, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
