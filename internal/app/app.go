package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	_ "habboverify/docs"
	"habboverify/internal/config"
	"habboverify/internal/discord"
	"habboverify/internal/habbo"
	"habboverify/internal/handlers"
	"habboverify/internal/logger"
	"habboverify/internal/middleware"
	"habboverify/internal/pdf"
	"habboverify/internal/realtime"
	"habboverify/internal/repositories"
	"habboverify/internal/routes"
	"habboverify/internal/scheduler"
	"habboverify/internal/services"
)

const (
	appName         = "habbo-verify"
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
	notifyTimeout   = 10 * time.Second
	notifyBuffer    = 64
)

// Run starts the bot, the admin API and the repair scheduler and blocks until SIGINT or SIGTERM.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(appName, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Store ===
	repo, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	// === Discord ===
	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}
	settings := config.NewSettings(configPath, cfg)
	roles := services.NewRoleSync(discord.NewGuildRoles(session, settings.GuildID()), settings)

	// === Services ===
	profiles := habbo.NewClient(cfg.Habbo.LookupURL, cfg.Habbo.UserAgent, time.Duration(cfg.Habbo.TimeoutSeconds)*time.Second)
	events := realtime.NewEventHub(cfg.Admin.AllowedOrigins)
	notifier := services.NewAsyncNotifier(buildNotifier(cfg, events), notifyTimeout, notifyBuffer)
	defer notifier.Close()
	attempts := services.NewAttemptRegistry()

	verifyService := services.NewVerifyService(repo, profiles, roles, services.NewGuard(settings), attempts, notifier,
		services.VerifyOptions{
			Wait:       time.Duration(cfg.Verification.WaitSeconds) * time.Second,
			CodeLength: cfg.Verification.CodeLength,
		})
	infoService := services.NewInfoService(profiles)
	settingsService := services.NewSettingsService(settings)
	repairService := services.NewRepairService(repo, roles, settings, notifier)

	bot := discord.NewBot(session, discord.NewHandler(verifyService, infoService, settingsService), settings.GuildID(), cfg.Discord.Activity)
	if err := bot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			logger.Log.Warnf("[discord][close][err] %v", err)
		}
	}()
	logger.Log.Info("Bot started!")

	// === Repair cron ===
	cronJobs := scheduler.NewRepairScheduler(repairService, cfg.Repair.Schedule)
	if err := cronJobs.Start(ctx); err != nil {
		return err
	}
	defer cronJobs.Stop()

	// === Admin API ===
	srv := adminServer(cfg, repo, attempts, repairService, events)
	if srv != nil {
		go func() {
			logger.Log.Infof("[admin] listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Errorf("[admin] server failed: %v", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Log.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warnf("[admin] shutdown: %v", err)
		}
	}
	return nil
}

func openStore(ctx context.Context, dbCfg config.DatabaseConfig) (repositories.VerificationRepository, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	switch dbCfg.Driver {
	case "memory":
		logger.Log.Warn("[store] using in-memory store, records are lost on restart")
		return repositories.NewMemoryVerificationRepository(), func() {}, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(dbCfg.DSN))
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		closeFn := func() {
			dctx, dcancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer dcancel()
			if err := client.Disconnect(dctx); err != nil {
				logger.Log.Warnf("[store] mongo disconnect: %v", err)
			}
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo ping: %w", err)
		}
		coll := client.Database(dbCfg.Name).Collection(dbCfg.Collection)
		if err := repositories.EnsureMongoIndexes(ctx, coll); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Log.Infof("[store] mongo %s.%s", dbCfg.Name, dbCfg.Collection)
		return repositories.NewMongoVerificationRepository(coll), closeFn, nil

	default:
		db, err := sql.Open("postgres", dbCfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres open: %w", err)
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Log.Warnf("[store] postgres close: %v", err)
			}
		}
		if err := db.PingContext(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := repositories.EnsureSchema(ctx, db); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Log.Info("[store] postgres")
		return repositories.NewVerificationRepository(db), closeFn, nil
	}
}

func buildNotifier(cfg *config.Config, events *realtime.EventHub) services.Notifier {
	multi := services.MultiNotifier{events}
	if cfg.Telegram.Token != "" {
		tg, err := services.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Log.Warnf("[notify] telegram disabled: %v", err)
		} else {
			multi = append(multi, tg)
		}
	}
	if cfg.Email.SMTPHost != "" {
		multi = append(multi, services.NewEmailNotifier(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			cfg.Email.To,
		))
	}
	return multi
}

func adminServer(
	cfg *config.Config,
	repo repositories.VerificationRepository,
	attempts *services.AttemptRegistry,
	repair *services.RepairService,
	events *realtime.EventHub,
) *http.Server {
	if cfg.Admin.Port == 0 {
		logger.Log.Info("[admin] disabled")
		return nil
	}
	if cfg.Admin.JWTSecret == "" || cfg.Admin.PasswordHash == "" {
		logger.Log.Warn("[admin] disabled: jwt_secret and password_hash are required")
		return nil
	}
	secret := []byte(cfg.Admin.JWTSecret)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	routes.SetupRoutes(
		router,
		secret,
		handlers.NewAdminAuthHandler(cfg.Admin.Username, cfg.Admin.PasswordHash, secret),
		handlers.NewRecordsHandler(repo, pdf.NewReportGenerator(cfg.Admin.ReportFont), cfg.Discord.GuildID),
		handlers.NewOpsHandler(attempts, repair, events),
	)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
