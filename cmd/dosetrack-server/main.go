package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/config"
	"github.com/dosetrack/dosetrack/internal/domain/adherence"
	"github.com/dosetrack/dosetrack/internal/domain/assistant"
	"github.com/dosetrack/dosetrack/internal/domain/medication"
	"github.com/dosetrack/dosetrack/internal/domain/stockalert"
	"github.com/dosetrack/dosetrack/internal/platform/auth"
	"github.com/dosetrack/dosetrack/internal/platform/calendar"
	"github.com/dosetrack/dosetrack/internal/platform/db"
	"github.com/dosetrack/dosetrack/internal/platform/middleware"
	"github.com/dosetrack/dosetrack/internal/platform/notification"
	"github.com/dosetrack/dosetrack/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dosetrack-server",
		Short: "Medication reminder and adherence tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// alertNotifier fans fired stock alerts out to the notification service and
// the owner's realtime topic. It adapts between the stockalert and
// notification packages, avoiding an import between them.
type alertNotifier struct {
	notify *notification.Service
	hub    *websocket.Hub
	log    zerolog.Logger
}

func (n *alertNotifier) NotifyAlert(ctx context.Context, ownerID uuid.UUID, alert stockalert.Alert) {
	templateID := "stock-low"
	if alert.Level == stockalert.LevelDepleted {
		templateID = "stock-depleted"
	}
	data := map[string]string{
		"medication": alert.Name,
		"days":       fmt.Sprintf("%d", alert.DaysRemaining),
	}
	if _, err := n.notify.SendTemplate(ctx, ownerID.String(), templateID, data); err != nil {
		n.log.Warn().Err(err).Str("medication", alert.Name).Msg("stock alert notification failed")
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return
	}
	topic := websocket.MedicationsTopic(ownerID)
	n.hub.Broadcast(topic, websocket.Event{
		Type:      "stock.alert",
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Realtime hub
	hub := websocket.NewHub()
	wsHandler := websocket.NewHandler(hub, func(c echo.Context) (uuid.UUID, bool) {
		return auth.OwnerIDFromContext(c.Request().Context())
	})
	wsHandler.RegisterRoutes(e.Group(""))

	// Medication domain
	medRepo := medication.NewRepoPG(pool)
	medSvc := medication.NewService(medRepo)
	medSvc.SetLogger(logger)
	medSvc.SetPublisher(websocket.NewListPublisher(hub))

	if cfg.CalendarEnabled() {
		syncer := calendar.NewGoogleSyncer(calendar.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		}, calendar.NewMemoryTokenStore(), logger)
		medSvc.SetCalendarSyncer(syncer)
		logger.Info().Msg("google calendar sync enabled")
	}

	// Notifications
	notifySvc := notification.NewService(notification.NewLogSender(logger))

	// Stock alerts
	alertEval := stockalert.NewEvaluator(medRepo, cfg.StockAlertThresholdDays)
	alertEval.SetLogger(logger)
	alertEval.SetNotifier(&alertNotifier{notify: notifySvc, hub: hub, log: logger})

	// Assistant links
	asstRepo := assistant.NewRepoPG(pool)
	asstSvc := assistant.NewService(asstRepo)

	// API routes
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	medication.NewHandler(medSvc).RegisterRoutes(apiV1)
	adherence.NewHandler(medRepo).RegisterRoutes(apiV1)
	stockalert.NewHandler(alertEval).RegisterRoutes(apiV1)
	assistant.NewHandler(asstSvc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Periodic stock alert evaluation
	ticker := cron.New()
	if _, err := ticker.AddFunc(cfg.StockAlertInterval, func() {
		alertEval.RunOnce(context.Background())
	}); err != nil {
		logger.Fatal().Err(err).Str("interval", cfg.StockAlertInterval).Msg("invalid stock alert interval")
	}
	ticker.Start()
	defer ticker.Stop()
	logger.Info().Str("interval", cfg.StockAlertInterval).Msg("stock alert ticker started")

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
