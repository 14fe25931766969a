package httpserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"candyshop/internal/domain"
)

const (
	sessionCookie = "candyshop_session"
	sessionMaxAge = 30 * 24 * 60 * 60

	ctxSessionID = "sessionID"
	ctxUserID    = "userID"
	ctxUserRole  = "userRole"
)

// sessionMiddleware assigns an opaque session id cookie to every visitor.
// The id namespaces the visitor's cart keys on the shared KV backend, the
// server-side analogue of a browser profile's local storage.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(sessionCookie, sid, sessionMaxAge, "/", "", false, true)
		}
		c.Set(ctxSessionID, sid)
		c.Next()
	}
}

type tokenValidator interface {
	ValidateToken(token string) (userID, role string, err error)
}

// authMiddleware parses an optional Bearer token. Invalid tokens are
// rejected outright rather than downgraded to anonymous, so a client with
// an expired token notices instead of silently losing its user cart.
func authMiddleware(users tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			respondError(c, http.StatusUnauthorized, "malformed authorization header")
			c.Abort()
			return
		}
		userID, role, err := users.ValidateToken(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserID) == "" {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != domain.RoleAdmin {
			respondError(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger emits one structured line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start))
		if userID := c.GetString(ctxUserID); userID != "" {
			event = event.Str("user_id", userID)
		}
		event.Msg("http request")
	}
}

// rateLimiter keeps a token bucket per client IP. Stale buckets are pruned
// lazily on lookup once the map grows past a threshold.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateClient
	limit   rate.Limit
	burst   int
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*rateClient),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.visitor(c.ClientIP()).Allow() {
			respondError(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *rateLimiter) visitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.clients) > 10000 {
		for key, v := range rl.clients {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(rl.clients, key)
			}
		}
	}

	v, ok := rl.clients[ip]
	if !ok {
		v = &rateClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}
