package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	_ "github.com/noah-isme/diagnostic-academy-api/api/swagger"
	"github.com/noah-isme/diagnostic-academy-api/internal/handler"
	"github.com/noah-isme/diagnostic-academy-api/internal/locale"
	"github.com/noah-isme/diagnostic-academy-api/internal/repository"
	"github.com/noah-isme/diagnostic-academy-api/internal/service"
	"github.com/noah-isme/diagnostic-academy-api/pkg/cache"
	"github.com/noah-isme/diagnostic-academy-api/pkg/config"
	"github.com/noah-isme/diagnostic-academy-api/pkg/database"
	"github.com/noah-isme/diagnostic-academy-api/pkg/export"
	"github.com/noah-isme/diagnostic-academy-api/pkg/jobs"
	"github.com/noah-isme/diagnostic-academy-api/pkg/logger"
	"github.com/noah-isme/diagnostic-academy-api/pkg/mailer"
	"github.com/noah-isme/diagnostic-academy-api/pkg/payments"
	"github.com/noah-isme/diagnostic-academy-api/pkg/storage"
	"github.com/noah-isme/diagnostic-academy-api/pkg/translate"
)

// @title Diagnostic Academy API
// @version 1.0.0
// @description Paid diagnostic tests: checkout, questions, grading, certificates and translation.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const appName = "Diagnostic Academy"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	tests := repository.NewTestRepository(db)
	attempts := repository.NewAttemptRepository(db)
	responses := repository.NewResponseRepository(db)
	coupons := repository.NewCouponRepository(db)
	certificates := repository.NewCertificateRepository(db)
	invitations := repository.NewInvitationRepository(db)

	var cacheRepo service.CacheRepository
	languageStore := locale.Store(locale.NewMemoryStore())
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		languageStore = repository.NewLanguageStore(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.QuestionsTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var sender mailer.Sender = mailer.NewLogSender(logr)
	if cfg.Email.Enabled && cfg.Email.SendGridAPIKey != "" {
		sender = mailer.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromAddress)
	}
	notifications := service.NewNotificationService(sender, users, attempts, tests, metrics, appName, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emailQueue := jobs.NewQueue("email", notifications.Process, jobs.QueueConfig{
		Workers:    cfg.Email.WorkerConcurrency,
		MaxRetries: cfg.Email.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	notifications.SetQueue(emailQueue)
	emailQueue.Start(rootCtx)
	defer emailQueue.Stop()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	paymentSvc := service.NewPaymentService(attempts, tests, payments.NewStripeGateway(cfg.Payments.StripeSecretKey), notifications, metrics, validate, logr, service.PaymentConfig{
		Currency:   cfg.Payments.Currency,
		SuccessURL: cfg.Payments.SuccessURL,
		CancelURL:  cfg.Payments.CancelURL,
		SessionTTL: cfg.Payments.SessionTTL,
	})
	couponSvc := service.NewCouponService(coupons, attempts, notifications, metrics, validate, logr)
	attemptSvc := service.NewAttemptService(attempts, tests, validate, logr)
	questionSvc := service.NewQuestionService(attempts, tests, cacheSvc, cfg.Cache.QuestionsTTL, validate, logr)
	submissionSvc := service.NewSubmissionService(attempts, tests, notifications, validate, logr)
	gradingSvc := service.NewGradingService(responses, attempts, notifications, validate, logr)

	files, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare certificate storage", zap.Error(err))
	}
	certificateSvc := service.NewCertificateService(service.CertificateDeps{
		Certificates: certificates,
		Attempts:     attempts,
		Tests:        tests,
		Users:        users,
		Renderer:     export.NewCertificateRenderer(),
		Storage:      files,
		Signer:       storage.NewDownloadSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL),
		Notifier:     notifications,
		Metrics:      metrics,
		DownloadURL:  strings.TrimRight(cfg.Certificates.PublicBaseURL, "/") + cfg.APIPrefix + "/certificates/download",
	}, validate, logr)

	llm := translate.NewClient(cfg.Translation.APIKey, cfg.Translation.BaseURL, cfg.Translation.Model)
	translationSvc := service.NewTranslationService(llm, cacheSvc, cfg.Translation.CacheTTL, validate, logr)
	languageSvc := service.NewLanguageService(locale.NewProvider(languageStore), validate, logr)
	proctorSvc := service.NewProctorService(attempts, metrics, validate, logr)
	invitationSvc := service.NewInvitationService(invitations, notifications, validate, logr)
	exportSvc := service.NewExportService(attempts, export.NewCSVExporter(), logr)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Payments.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(rootCtx, time.Minute)
		defer cancel()
		cleared, err := paymentSvc.SweepStaleSessions(ctx)
		if err != nil {
			logr.Error("checkout sweep failed", zap.Error(err))
			return
		}
		if cleared > 0 {
			logr.Info("cleared stale checkout sessions", zap.Int64("count", cleared))
		}
	}); err != nil {
		logr.Fatal("invalid checkout sweep schedule", zap.String("schedule", cfg.Payments.SweepSchedule), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc, couponSvc),
		Tests:        handler.NewTestHandler(attemptSvc, questionSvc, submissionSvc),
		Grading:      handler.NewGradingHandler(gradingSvc),
		Certificates: handler.NewCertificateHandler(certificateSvc),
		Translation:  handler.NewTranslationHandler(translationSvc),
		Invitations:  handler.NewInvitationHandler(invitationSvc),
		Proctor:      handler.NewProctorHandler(proctorSvc),
		Language:     handler.NewLanguageHandler(languageSvc),
		Exports:      handler.NewExportHandler(exportSvc),
		System:       handler.NewSystemHandler(metrics, checks, logr),
	}, authSvc, users, metrics, logr, handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
