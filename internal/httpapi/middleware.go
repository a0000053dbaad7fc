package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"earnyard-ledger-go/internal/api"
	"earnyard-ledger-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const actorKey = "actor"

// AuthRequired resolves the bearer token to the stored account. A banned
// account gets 401 ACCOUNT_BANNED so the client drops its session.
func AuthRequired(svc *api.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Fail(models.ErrUnauthorized))
			return
		}

		user, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			res := models.Fail(err)
			if res.Code == models.CodeInternal {
				zap.L().Error("Session lookup failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, &models.Result{Code: res.Code, Error: "internal error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		c.Set(actorKey, user)
		c.Next()
	}
}

// RequireAdmin must run after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := actor(c); user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, models.Fail(models.ErrUnauthorized))
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) *models.User {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// ClientLimiter hands out one token bucket per client IP.
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	maxKeys  int
}

func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		maxKeys:  10000,
	}
}

func (l *ClientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		// crude bound on memory; every client starts over with a full bucket
		if len(l.limiters) >= l.maxKeys {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

func (l *ClientLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			zap.L().Warn("Rate limit exceeded", zap.String("client_ip", c.ClientIP()), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, &models.Result{Code: "RATE_LIMITED", Error: "too many attempts"})
			return
		}
		c.Next()
	}
}
