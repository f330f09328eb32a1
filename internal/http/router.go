package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/config"
	"baeumcoop.kr/app/internal/http/handlers"
	"baeumcoop.kr/app/internal/http/handlers/admin"
	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/modules/users"
	"baeumcoop.kr/app/internal/storage"
)

type RouterDeps struct {
	Cfg     config.Config
	DB      *gorm.DB
	Logger  *slog.Logger
	Gateway payments.Gateway
	Notify  *notify.Service
	Storage storage.Storage
}

// NewRouter builds the gin engine with the full middleware chain and all
// API routes. Handlers stay thin; business rules live in the services.
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))

	sessCfg := middleware.SessionCfg{
		DB:         d.DB,
		CookieName: d.Cfg.SessionCookie,
		Secure:     d.Cfg.SecureCookies,
		TTL:        d.Cfg.SessionTTL,
	}
	r.Use(middleware.SessionMiddleware(sessCfg))

	userSvc := users.NewService(d.DB)
	programRepo := programs.NewRepo(d.DB)
	paymentRepo := payments.NewRepo(d.DB)
	checkoutSvc := payments.NewCheckoutService(d.DB, d.Gateway, d.Cfg.BaseURL)
	callbackSvc := payments.NewCallbackService(d.DB, d.Gateway, d.Notify)
	webhookSvc := payments.NewWebhookService(d.DB, d.Notify)
	cancelSvc := payments.NewCancelService(d.DB, d.Gateway, d.Notify)

	authH := handlers.NewAuthHandler(userSvc, sessCfg)
	programsH := handlers.NewProgramsHandler(programRepo)
	paymentsH := handlers.NewPaymentsHandler(paymentRepo, checkoutSvc, cancelSvc)
	callbackH := handlers.NewCallbackHandler(callbackSvc, d.Cfg.BaseURL)
	webhookH := handlers.NewWebhookHandler(d.Logger, webhookSvc)
	notifH := handlers.NewNotificationsHandler(d.Notify)
	adminProgramsH := admin.NewProgramsHandler(programRepo, d.Storage)
	adminPaymentsH := admin.NewPaymentsHandler(paymentRepo, cancelSvc)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/programs", programsH.List)
		api.GET("/programs/:slug", programsH.Detail)

		api.POST("/auth/register", authH.Register)
		api.POST("/auth/login", authH.Login)
		api.POST("/auth/logout", authH.Logout)
		api.GET("/auth/me", authH.Me)

		// Gateway-facing endpoints. The gateway is not a logged-in user,
		// they stay outside RequireAuth.
		api.POST("/nicepay/callback", callbackH.Handle)
		api.POST("/nicepay/webhook", webhookH.Handle)
	}

	authed := api.Group("")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/payments/checkout", paymentsH.CheckoutPost)
		authed.GET("/payments", paymentsH.List)
		authed.GET("/payments/:id", paymentsH.Detail)
		authed.POST("/payments/:id/cancel", paymentsH.Cancel)

		authed.GET("/notifications", notifH.List)
		authed.POST("/notifications/:id/read", notifH.MarkRead)
	}

	adm := api.Group("/admin")
	adm.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		adm.POST("/programs", adminProgramsH.Create)
		adm.PATCH("/programs/:id", adminProgramsH.Update)
		adm.POST("/programs/:id/image", adminProgramsH.UploadImage)
		adm.GET("/participants", adminProgramsH.ListParticipants)

		adm.GET("/payments", adminPaymentsH.List)
		adm.GET("/refunds", adminPaymentsH.ListRefunds)
		adm.POST("/payments/:id/cancel", adminPaymentsH.Cancel)
	}

	return r
}
