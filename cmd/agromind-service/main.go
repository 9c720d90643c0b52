package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/auth"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/config"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/db"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/excel"
	httphandler "github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/http"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/http/middleware"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/inference"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/logger"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/pdf"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/repository"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/service"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	var history service.HistoryStore
	if cfg.HistoryEnabled() {
		database, err := db.New(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		history = repository.NewRecommendationRepository(database)
	} else {
		log.Warn().Msg("DB_DSN or JWT_ACCESS_SECRET not set, recommendation history disabled")
	}

	weatherClient := weather.NewClient(cfg.Weather, log)
	if cfg.Weather.APIKey == "" {
		log.Warn().Msg("WEATHER_API_KEY not set, default weather values will be used")
	}

	modelClient := inference.NewClient(cfg.Models, log)
	predictor := inference.NewNutrientPredictor(modelClient, cfg.Models.NutrientModel)
	classifier := inference.NewDiseaseClassifier(modelClient, cfg.Models.DiseaseModel)

	recService := service.NewRecommendationService(weatherClient, predictor, history, pdf.NewGenerator(), excel.NewGenerator(), log)
	diagnosisService := service.NewDiagnosisService(classifier)

	mw := httphandler.Middlewares{
		RateLimiter: middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
	}
	if cfg.Auth.AccessSecret != "" {
		tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
		mw.Auth = middleware.Auth(tokenParser)
		mw.OptionalAuth = middleware.OptionalAuth(tokenParser)
	}
	go mw.RateLimiter.StartCleanup(10 * time.Minute)
	defer mw.RateLimiter.Stop()

	handler := httphandler.NewHandler(recService, diagnosisService, cfg.HTTP.UploadMaxBytes, log)
	router := httphandler.NewRouter(handler, mw, cfg.HTTP, cfg.Environment, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Bool("history", history != nil).Msg("starting agromind service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}
