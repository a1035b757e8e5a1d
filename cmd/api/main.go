package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	// Activity windows are evaluated in APP_TIME_ZONE even on hosts without zoneinfo.
	_ "time/tzdata"

	goversion "github.com/caarlos0/go-version"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/activity-desk/internal/api/http"
	"github.com/spec-kit/activity-desk/internal/api/http/handlers"
	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/config"
	"github.com/spec-kit/activity-desk/internal/events"
	"github.com/spec-kit/activity-desk/internal/lock"
	"github.com/spec-kit/activity-desk/internal/observability"
	"github.com/spec-kit/activity-desk/internal/persistence"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/internal/storage"
	"github.com/spec-kit/activity-desk/internal/worker"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

// Set by -ldflags at build time.
var (
	version   = ""
	commit    = ""
	date      = ""
	builtBy   = ""
	treeState = ""
)

const (
	notificationQueueSize = 256
	notificationWorkers   = 2
	shutdownTimeout       = 10 * time.Second
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	info := buildVersion(version, commit, date, builtBy, treeState)
	if *showVersion {
		fmt.Println(info.String())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if version == "" {
		info.GitVersion = cfg.App.Version
	}
	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatalf("failed to load time zone: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	files, err := storage.NewLocalFileStore(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	pool := pg.Pool()
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	txManager := repository.NewTxManager(pool)
	lookup := &repository.AccessLookup{
		Users:         userRepo,
		Profiles:      profileRepo,
		Activities:    activityRepo,
		Conversations: conversationRepo,
		Messages:      messageRepo,
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger, metrics)

	notifier := service.NewNotificationService(logger, cfg.Notification)
	notifications := worker.NewNotificationWorker(notifier, logger, notificationQueueSize, notificationWorkers)
	notifications.Subscribe(dispatcher)
	notifications.Start(ctx)
	defer notifications.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	revocations := auth.NewRedisRevocationStore(redis.Client())

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     userRepo,
		TokenManager: tokens,
		Revocations:  revocations,
		Logger:       logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		Tx:         txManager,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	profileService := service.NewProfileService(service.ProfileDependencies{
		ProfileRepo: profileRepo,
		Tx:          txManager,
		Files:       files,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	activityService := service.NewActivityService(service.ActivityDependencies{
		ActivityRepo: activityRepo,
		UserRepo:     userRepo,
		Tx:           txManager,
		Dispatcher:   dispatcher,
		Location:     loc,
		Logger:       logger,
	})
	conversationService := service.NewConversationService(service.ConversationDependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		UserRepo:         userRepo,
		Tx:               txManager,
		Locker:           lock.NewRedisLocker(redis.Client(), cfg.Redis.LockTTL()),
		Dispatcher:       dispatcher,
		Location:         loc,
		PageSize:         cfg.Chat.PageSize,
		Logger:           logger,
	})
	dashboardService := service.NewDashboardService(userRepo, profileRepo, activityRepo)

	validator := validation.New()

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// Two documents per profile form plus the text fields.
		BodyLimit: int(2*cfg.Storage.MaxUploadBytes) + 64<<10,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, info, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:          handlers.NewAuthHandler(authService, profileService, validator),
		Users:         handlers.NewUsersHandler(userService, profileService, activityService, validator),
		Profiles:      handlers.NewProfilesHandler(profileService, validator),
		Activities:    handlers.NewActivitiesHandler(activityService, validator),
		Dashboards:    handlers.NewDashboardHandler(dashboardService),
		Tickets:       handlers.NewTicketsHandler(conversationService, validator),
		Chat:          handlers.NewChatHandler(conversationService, validator),
		Authenticator: auth.NewAuthenticator(tokens, revocations, lookup, logger),
		Gatekeeper:    auth.NewGatekeeper(lookup, loc),
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("version", info.GitVersion))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

func buildVersion(version, commit, date, builtBy, treeState string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("activity-desk", "HR activity tracking and ticketing", ""),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
