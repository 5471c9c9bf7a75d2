package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/middleware"
	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/service"
	"github.com/noah-isme/diagnostic-academy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/diagnostic-academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/diagnostic-academy-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Payments     *PaymentHandler
	Tests        *TestHandler
	Grading      *GradingHandler
	Certificates *CertificateHandler
	Translation  *TranslationHandler
	Invitations  *InvitationHandler
	Proctor      *ProctorHandler
	Language     *LanguageHandler
	Exports      *ExportHandler
	System       *SystemHandler
}

// RouterConfig tunes route registration.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// NewRouter builds the gin engine with the shared middleware chain.
func NewRouter(h Handlers, tokens middleware.TokenValidator, roles middleware.RoleChecker, metrics *service.MetricsService, logr *zap.Logger, cfg RouterConfig) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.System.Health)
	r.GET("/ready", h.System.Ready)
	r.GET("/metrics", h.System.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/certificates/download", h.Certificates.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	secured.POST("/attempts", h.Tests.CreateAttempt)
	secured.GET("/me/language", h.Language.Get)
	secured.PUT("/me/language", h.Language.Set)

	fn := secured.Group("/functions")
	fn.POST("/create-checkout", h.Payments.CreateCheckout)
	fn.POST("/verify-payment", h.Payments.VerifyPayment)
	fn.POST("/redeem-coupon", h.Payments.RedeemCoupon)
	fn.POST("/get-test-questions", h.Tests.GetQuestions)
	fn.POST("/submit-test", h.Tests.Submit)
	fn.POST("/generate-certificate", h.Certificates.Generate)
	fn.POST("/translate-questions", h.Translation.Translate)
	fn.POST("/report-visibility", h.Proctor.ReportVisibility)

	staff := middleware.RequireRoles(roles, logr, models.StaffRoles...)
	fn.POST("/grade-manual-response", staff, h.Grading.GradeResponse)
	fn.POST("/recompute-score", staff, h.Grading.RecomputeScore)
	fn.POST("/send-invitation", staff, h.Invitations.Send)
	fn.POST("/reset-test-lock", staff, h.Proctor.ResetLock)
	secured.GET("/exports/results", staff, h.Exports.Results)

	return r
}
