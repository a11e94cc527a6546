package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/config"
)

// ContextKeyActor holds the username responsible for the request.
const ContextKeyActor = "auth_actor"

// AnonymousActor is recorded when no staff account is involved.
const AnonymousActor = "anonymous"

// Middleware enforces basic authentication on mutating requests.
type Middleware struct {
	service *Service
	limiter *RateLimiter
	mode    config.AuthMode
	realm   string
}

func NewMiddleware(service *Service, limiter *RateLimiter, cfg config.Auth) *Middleware {
	realm := cfg.Realm
	if realm == "" {
		realm = "library"
	}
	return &Middleware{
		service: service,
		limiter: limiter,
		mode:    cfg.Mode,
		realm:   realm,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.mode != config.AuthModeBasic {
		return func(c *gin.Context) {
			c.Set(ContextKeyActor, AnonymousActor)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		username, password, hasCredentials := c.Request.BasicAuth()

		if isSafeMethod(c.Request.Method) && !hasCredentials {
			c.Set(ContextKeyActor, AnonymousActor)
			c.Next()
			return
		}
		if !hasCredentials {
			m.unauthorized(c)
			return
		}

		ip := c.ClientIP()
		if m.limiter != nil {
			if allowed, retryAfter := m.limiter.Allow(ip, username); !allowed {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error": "Too many failed login attempts",
					"code":  "TOO_MANY_REQUESTS",
				})
				return
			}
		}

		account, err := m.service.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			if !errors.Is(err, ErrInvalidCredentials) {
				log.Printf("Auth: failed to verify credentials for %q: %v", username, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  "INTERNAL_SERVER_ERROR",
				})
				return
			}
			if m.limiter != nil {
				if locked, _ := m.limiter.RecordFailure(ip, username); locked {
					log.Printf("Auth: %q locked out after repeated failures from %s", username, ip)
				}
			}
			m.unauthorized(c)
			return
		}

		if m.limiter != nil {
			m.limiter.RecordSuccess(ip, username)
		}
		c.Set(ContextKeyActor, account.Username)
		c.Next()
	}
}

func (m *Middleware) unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", m.realm))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  "UNAUTHORIZED",
	})
}

// Actor returns the username set by the middleware, or AnonymousActor.
func Actor(c *gin.Context) string {
	if actor := c.GetString(ContextKeyActor); actor != "" {
		return actor
	}
	return AnonymousActor
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
