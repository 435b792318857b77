package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"routecrm-go/internal/aggregator"
	"routecrm-go/internal/config"
	"routecrm-go/internal/database"
	httpserver "routecrm-go/internal/http"
	"routecrm-go/internal/importer"
	"routecrm-go/internal/ratelimit"
	"routecrm-go/internal/sync"
)

func main() {
	_ = godotenv.Load(".env")

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	imp, err := importer.New()
	if err != nil {
		log.Fatal().Err(err).Msg("importer init failed")
	}

	store := database.NewStore(db, log)
	client := aggregator.NewHTTPClient(cfg)
	limiter := ratelimit.New(cfg.SyncRPS, cfg.SyncBurst)
	syncer := sync.NewSyncer(store, client, limiter, log)

	r := httpserver.NewServer(cfg, db, syncer, imp, log)
	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
