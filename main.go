package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/milepost/milepost/internal/adapters/counterrepository"
	"github.com/milepost/milepost/internal/adapters/database"
	"github.com/milepost/milepost/internal/adapters/notifier"
	"github.com/milepost/milepost/internal/app"
	"github.com/milepost/milepost/internal/config"
	"github.com/milepost/milepost/internal/evaluator"
	"github.com/milepost/milepost/internal/ports"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/sessions"
	"github.com/milepost/milepost/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Bundle fallback root certificates for scratch/distroless images
	_ "golang.org/x/crypto/x509roots/fallback"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "milepost.gg"
const STAGING_DOMAIN_SUFFIX = "milepost-web.pages.dev"

const SESSION_TTL = 30 * time.Minute

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	otelShutdown, err := telemetry.SetupOTelSDK(ctx, "milepost")
	if err != nil {
		fail("Failed to set up OpenTelemetry SDK", "error", err.Error())
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry SDK", "error", err.Error())
		}
	}()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	gameServices, err := notifier.NewGameServicesAPIOrMock(config, httpClient)
	if err != nil {
		fail("Failed to initialize game services API", "error", err.Error())
	}
	logger.Info("Initialized game services API")

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	logger.Info("Initializing database connection")
	db, err := database.NewCloudsqlPostgresDatabase(config)
	if err != nil {
		fail("Failed to initialize database connection", "error", err.Error())
	}
	logger.Info("Initialized database connection")

	repositorySchemaName := database.GetSchemaName(!config.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	counterRepo := counterrepository.NewPostgres(db, repositorySchemaName, time.Now)
	logger.Info("Initialized CounterRepository")

	sessionStore, stopSessions := sessions.NewStore(
		SESSION_TTL,
		config.Thresholds(),
		func(playerUUID string) evaluator.Notifier {
			return notifier.NewPlayerNotifier(gameServices, playerUUID)
		},
	)
	defer stopSessions()
	logger.Info("Initialized session store", "thresholds", config.Thresholds().Len())

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	registerTap := app.BuildRegisterTap(counterRepo, sessionStore, gameServices)
	getCounter := app.BuildGetCounter(counterRepo, sessionStore)
	resetCounter := app.BuildResetCounter(counterRepo, sessionStore)

	http.HandleFunc(
		"OPTIONS /v1/counters/{uuid}/taps",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/counters/{uuid}/taps",
		ports.MakeRegisterTapHandler(
			registerTap,
			logger.With("port", "tap"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/counters/{uuid}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/counters/{uuid}",
		ports.MakeGetCounterHandler(
			getCounter,
			logger.With("port", "counter"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/counters/{uuid}/reset",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/counters/{uuid}/reset",
		ports.MakeResetCounterHandler(
			resetCounter,
			logger.With("port", "reset"),
			sentryMiddleware,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
