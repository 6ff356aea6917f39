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

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/vasiliy-maslov/marketplace-ops/internal/assignment"
	"github.com/vasiliy-maslov/marketplace-ops/internal/catalog"
	"github.com/vasiliy-maslov/marketplace-ops/internal/chat"
	"github.com/vasiliy-maslov/marketplace-ops/internal/config"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
	"github.com/vasiliy-maslov/marketplace-ops/internal/delivery"
	"github.com/vasiliy-maslov/marketplace-ops/internal/events"
	opshttp "github.com/vasiliy-maslov/marketplace-ops/internal/handler/http"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
	"github.com/vasiliy-maslov/marketplace-ops/internal/job"
	"github.com/vasiliy-maslov/marketplace-ops/internal/notification"
	"github.com/vasiliy-maslov/marketplace-ops/internal/order"
	"github.com/vasiliy-maslov/marketplace-ops/internal/report"
	"github.com/vasiliy-maslov/marketplace-ops/internal/store"
	"github.com/vasiliy-maslov/marketplace-ops/internal/worker"
)

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Info().Str("env", cfg.App.Env).Str("assignment_mode", cfg.Assignment.Mode).Msg("Ops service starting...")

	ctx := c.Context

	dbConn, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if cfg.Postgres.AutoMigrate {
		if err := dbConn.Migrate(ctx); err != nil {
			return err
		}
	}

	publisher, closePublisher, err := newPublisher(cfg.Rabbit)
	if err != nil {
		return err
	}
	defer closePublisher()

	handler := buildRouter(cfg, dbConn, publisher)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", cfg.App.Port, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("Ops service stopped gracefully")
	return nil
}

func newPublisher(cfg config.RabbitConfig) (events.Publisher, func(), error) {
	if !cfg.Enabled {
		log.Info().Msg("RabbitMQ disabled, domain events are dropped")
		return events.NewNoop(), func() {}, nil
	}

	publisher, err := events.DialAMQP(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return publisher, publisher.Close, nil
}

func buildRouter(cfg *config.Config, dbConn *db.Postgres, publisher events.Publisher) http.Handler {
	pool := dbConn.Pool

	accounts := identity.NewService(identity.NewRepository(pool), cfg.Auth.SessionTTL)

	orderSvc := order.NewService(order.NewRepository(pool), publisher, order.Options{
		StrictTransitions: cfg.Orders.StrictTransitions,
	})
	assigner := assignment.NewService(assignment.NewStore(pool), publisher, assignment.Mode(cfg.Assignment.Mode))
	deliverySvc := delivery.NewService(delivery.NewRepository(pool), publisher)
	workerSvc := worker.NewService(worker.NewRepository(pool), accounts)
	storeSvc := store.NewService(store.NewRepository(pool), accounts)
	catalogSvc := catalog.NewService(catalog.NewRepository(pool))
	chatSvc := chat.NewService(chat.NewRepository(pool))
	notificationSvc := notification.NewService(notification.NewRepository(pool))
	jobSvc := job.NewService(job.NewRepository(pool), notificationSvc, publisher)
	reports := report.NewAggregator(report.NewRepository(pool), accounts, cfg.ReportLocation())

	auth := opshttp.NewAuthenticator(accounts, cfg.Auth.CookieName)

	return opshttp.NewRouter(auth, opshttp.Handlers{
		Auth: opshttp.NewAuthHandler(accounts, auth, opshttp.CookieOptions{
			Name:   cfg.Auth.CookieName,
			MaxAge: cfg.Auth.CookieMaxAge,
			Secure: cfg.App.IsProduction(),
		}),
		Protected: []opshttp.RouteRegistrar{
			opshttp.NewOrderHandler(orderSvc, assigner),
			opshttp.NewDeliveryHandler(deliverySvc),
			opshttp.NewWorkerHandler(workerSvc),
			opshttp.NewStoreHandler(storeSvc),
			opshttp.NewCatalogHandler(catalogSvc),
			opshttp.NewChatHandler(chatSvc),
			opshttp.NewJobHandler(jobSvc),
			opshttp.NewNotificationHandler(notificationSvc),
			opshttp.NewReportHandler(reports, cfg.Reports.DefaultDays),
		},
		Admin: []opshttp.RouteRegistrar{
			opshttp.NewAdminHandler(accounts, reports),
		},
	})
}

func runMigrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbConn, err := db.New(c.Context, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	return dbConn.Migrate(c.Context)
}

func runSeedAdmin(c *cli.Context) error {
	role := identity.Role(c.String("role"))
	if role != identity.RoleAdmin && role != identity.RoleOperation {
		return fmt.Errorf("seed-admin only creates admin or operation accounts, got %q", role)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbConn, err := db.New(c.Context, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	input := identity.CreateUserInput{
		Email:    c.String("email"),
		Password: c.String("password"),
		Role:     role,
	}
	if name := c.String("name"); name != "" {
		input.Name = &name
	}

	accounts := identity.NewService(identity.NewRepository(dbConn.Pool), cfg.Auth.SessionTTL)
	u, created, err := accounts.UpsertUser(c.Context, input)
	if err != nil {
		return err
	}

	log.Info().Stringer("user_id", u.ID).Str("email", u.Email).Bool("created", created).Msg("Account seeded")
	return nil
}
