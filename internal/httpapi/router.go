package httpapi

import (
	"net/http"

	"earnyard-ledger-go/internal/api"
	"earnyard-ledger-go/internal/metrics"
	"earnyard-ledger-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// NewRouter builds the HTTP surface over the operation boundary.
func NewRouter(svc *api.Service, cfg models.ServerConfig) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	h := &handlers{svc: svc}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", h.register)
	v1.POST("/auth/login", NewClientLimiter(cfg.LoginRateLimit, cfg.LoginBurst).Handler(), h.login)
	v1.GET("/leaderboard", h.leaderboard)
	v1.GET("/settings", h.settings)

	authed := v1.Group("", AuthRequired(svc))
	authed.GET("/session", h.session)
	authed.PATCH("/me", h.updateProfile)
	authed.POST("/me/creator", h.activateCreator)
	authed.GET("/wallet", h.wallet)
	authed.GET("/referrals", h.referrals)

	authed.POST("/requests/deposit", h.submitDeposit)
	authed.POST("/requests/withdrawal", h.submitWithdrawal)
	authed.POST("/requests/premium", h.upgradePremium)
	authed.GET("/requests", h.listRequests)
	authed.GET("/requests/:id", h.getRequest)
	authed.POST("/requests/:id/messages", h.postMessage)

	authed.GET("/offers", h.listOffers)
	authed.POST("/offers", h.createOffer)
	authed.POST("/offers/:id/engage", h.engage)
	authed.POST("/offers/:id/submissions", h.submitProof)
	authed.GET("/submissions", h.mySubmissions)
	authed.GET("/reviews", h.reviewQueue)
	authed.POST("/submissions/:id/review", h.review)

	authed.POST("/tickets", h.openTicket)
	authed.GET("/tickets", h.listTickets)
	authed.POST("/guidance", h.guidance)

	admin := authed.Group("/admin", RequireAdmin())
	admin.GET("/stats", h.adminStats)
	admin.GET("/users", h.listUsers)
	admin.POST("/users/:id/freeze", h.freeze)
	admin.POST("/users/:id/ban", h.ban)
	admin.POST("/users/:id/credit", h.credit)
	admin.POST("/requests/:id/approve", h.approve)
	admin.POST("/requests/:id/reject", h.reject)
	admin.PUT("/settings/rates", h.updateRates)
	admin.POST("/settings/maintenance", h.toggleMaintenance)
	admin.POST("/broadcasts", h.broadcast)
	admin.POST("/campaigns", h.publishCampaign)
	admin.POST("/tickets/:id/respond", h.respondTicket)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
