package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-tracker/internal/api/http"
	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/repository/memory"
	"github.com/spec-kit/ticket-tracker/internal/service"
	"github.com/spec-kit/ticket-tracker/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users    repository.UserRepository
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	history  repository.TicketHistoryRepository
}

func main() {
	envFile := flag.String("env-file", "", "dotenv file to load before reading the environment (default .env)")
	addr := flag.String("addr", "", "listen address, overrides APP_HOST/APP_PORT")
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && (cfg.Postgres.RunMigrations || *migrateOnly) {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		if !pg.Enabled() {
			logger.Fatal("--migrate-only requires POSTGRES_DSN")
		}
		return
	}

	repos := buildRepositories(pg)

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var locker persistence.Locker = persistence.NewLocalLocker()
	if redis.Available() {
		locker = persistence.NewRedisLocker(redis.Client, cfg.Lock, logger)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	historyService := service.NewHistoryService(repos.history, dispatcher, logger)
	worker.StartHistoryWorker(historyService)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: repos.users})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.tickets,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: repos.comments,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	app := fiber.New(httptransport.FiberConfig(cfg.App.Name, httptransport.ErrorHandler(logger, metrics)))
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, authService, locker),
		Comments:       handlers.NewCommentsHandler(ticketService, commentService, historyService, locker),
		AuthMiddleware: authMiddleware,
	})

	listenAddr := cfg.App.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", listenAddr), zap.Bool("postgres", pg.Enabled()), zap.Bool("redis_locks", redis.Available()))
		if err := app.Listen(listenAddr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if pg.Enabled() {
		return repositories{
			users:    repository.NewUserRepository(pg.Pool),
			tickets:  repository.NewTicketRepository(pg.Pool),
			comments: repository.NewCommentRepository(pg.Pool),
			history:  repository.NewTicketHistoryRepository(pg.Pool),
		}
	}
	store := memory.NewStore()
	return repositories{
		users:    store.Users(),
		tickets:  store.Tickets(),
		comments: store.Comments(),
		history:  store.History(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
