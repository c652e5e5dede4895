package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/coursebuilder/api/config"
	"github.com/local/coursebuilder/api/db"
	"github.com/local/coursebuilder/api/handlers"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	database, err := db.Init(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	log.Info().Str("db_path", cfg.DBPath).Msg("Database initialized")

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.MaxMultipartMemory = cfg.MaxUploadSize

	h, err := handlers.New(database, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize handlers")
	}
	h.Register(router.Group("/api"))

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().
		Str("port", cfg.Port).
		Str("model_provider", cfg.ModelProvider).
		Dur("ai_timeout", cfg.AITimeout).
		Dur("session_ttl", cfg.SessionTTL).
		Msg("Starting course builder API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
