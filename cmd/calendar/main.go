package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"brandforge/api_calendar/internal/calendar"
	"brandforge/api_calendar/internal/handlers"
	"brandforge/api_calendar/internal/research"
	"brandforge/api_calendar/internal/store"
	"brandforge/api_calendar/pkg/config"
	"brandforge/api_calendar/pkg/database"
	"brandforge/api_calendar/pkg/llm"
	"brandforge/api_calendar/pkg/logging"
	"brandforge/api_calendar/pkg/monitoring"
	"brandforge/api_calendar/pkg/server"
	"brandforge/api_calendar/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("calendar")
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "18050")

	db := database.MustConnect(database.ConfigFromEnv(), logger)
	defer db.Close()

	if config.GetEnvBool("MIGRATE_ON_START", true) {
		if err := database.ApplySchema(context.Background(), db, logger); err != nil {
			logger.WithError(err).Fatal("Failed to apply database schema")
		}
	}

	llmConfig := llm.LoadConfig()
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure LLM provider")
	}

	runStore := store.NewRunStore(db, logger)
	draftStore := store.NewDraftStore(db)
	builder := research.NewSQLContextBuilder(db, logger)

	processor := calendar.NewProcessor(provider, logger)
	generator := calendar.NewGenerator(provider, logger)
	pipeline := calendar.NewPipeline(builder, processor, generator, runStore, logger)
	draftWriter := calendar.NewDraftWriter(provider, logger)

	healthChecker := monitoring.NewHealthChecker("calendar", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("calendar", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": config.GetEnv("DATABASE_URL", ""),
		"LLM_API_KEY":  llmConfig.APIKey,
	}))

	metrics := newCalendarMetrics(metricsCollector)

	app := server.SetupServiceRouter(logger, "calendar", healthChecker, metricsCollector)

	calendarHandler := handlers.NewCalendarHandler(pipeline, runStore, logger, metrics)
	draftHandler := handlers.NewDraftHandler(runStore, draftWriter, draftStore, logger, metrics)

	api := app.Group("/api")
	api.POST("/research-jobs/:id/content-calendar", calendarHandler.Generate)
	api.GET("/research-jobs/:id/content-calendar", calendarHandler.GetLatest)
	api.GET("/research-jobs/:id/content-calendar/runs", calendarHandler.ListRuns)
	api.POST("/slots/:slotId/generate", draftHandler.Generate)
	api.GET("/slots/:slotId/drafts", draftHandler.List)

	serverConfig := server.DefaultConfig("calendar", port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}

func newCalendarMetrics(mc *monitoring.MetricsCollector) *handlers.CalendarMetrics {
	metrics := &handlers.CalendarMetrics{
		RunRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calendar_run_requests_total",
				Help: "Calendar generation requests by outcome",
			},
			[]string{"status"},
		),
		DegradedRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "calendar_degraded_runs_total",
				Help: "Completed runs that needed repair or fallback",
			},
		),
		DraftRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calendar_draft_requests_total",
				Help: "Slot draft requests by outcome",
			},
			[]string{"status"},
		),
	}
	mc.MustRegister(metrics.RunRequests, metrics.DegradedRuns, metrics.DraftRequests)
	return metrics
}
