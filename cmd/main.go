package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	authapi "github.com/kollektive-hackathon/peril-backend/internal/auth"
	"github.com/kollektive-hackathon/peril-backend/internal/board"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/config"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/firebase"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/middleware"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/pubsub"
	pkgws "github.com/kollektive-hackathon/peril-backend/internal/pkg/ws"
	"github.com/kollektive-hackathon/peril-backend/internal/ws"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := setupViper()
	setupZerolog(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker, err := pubsub.NewBroker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.Broker).Msg("Failed to initialize broker")
	}
	defer func() { broker.Close() }()

	if cfg.AuthEnabled {
		firebase.InitFirebaseSdk(ctx)
	}

	db := setupDb(cfg.DbUrl)
	apiRouter := setupApiRouter(ctx, cfg, db, broker)

	server := &http.Server{
		Addr:         cfg.Port,
		Handler:      apiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Str("broker", cfg.Broker).Msg("Starting Peril server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupDb(dbUrl string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dbUrl), &gorm.Config{})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	sqlDb, _ := db.DB()

	sqlDb.SetMaxOpenConns(50)
	sqlDb.SetConnMaxLifetime(time.Minute * 10)

	if err := board.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	return db
}

func setupApiRouter(ctx context.Context, cfg config.Config, db *gorm.DB, broker pubsub.Broker) *gin.Engine {
	apiRouter := gin.New()
	middleware.RegisterGlobalMiddleware(apiRouter, cfg.CorsAllowedOrigins)

	routerGroup := apiRouter.Group("/peril-api")

	auth := middleware.Auth(cfg.AuthEnabled)
	hub := pkgws.NewNotificationHub()

	if cfg.AuthEnabled {
		authapi.RegisterRoutes(routerGroup, cfg.GoogleProjectApiKey)
	}
	ws.RegisterRoutes(routerGroup, hub, auth)
	board.RegisterRoutesAndSubscriptions(ctx, routerGroup, db, broker, hub, cfg.MovesSubscriptionId, auth)

	return apiRouter
}

func setupViper() config.Config {
	viper.AutomaticEnv()
	viper.SetConfigFile("./.env")
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		log.Info().Err(err).Msg("No .env file, using environment only")
	}
	return config.Load(viper.GetViper())
}

func setupZerolog(level string) {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
