package api

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/generator"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/service"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
	ContextTokenKey  = "authToken"
)

// AuthMiddleware accepts the credential from the session cookie or from an
// "Authorization: Bearer <token>" header.
func AuthMiddleware(authService service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := tokenFromRequest(c, cookieName)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		userID, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", errors.New("Authorization header format must be Bearer {token}")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errors.New("authentication required")
}

// RequestLogger logs every request through logrus once it is served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		})
		if userID := c.GetString(ContextUserIDKey); userID != "" {
			entry = entry.WithField("user_id", userID)
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// RequestMetrics counts requests and observes their duration per route.
func RequestMetrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.GaugeRequests.Inc()
		defer m.GaugeRequests.Dec()

		defer func(begin time.Time) {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Writer.Status())
			m.HistogramRequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(begin).Seconds())
			m.CounterRequests.WithLabelValues(c.Request.Method, status).Inc()
		}(time.Now())

		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// respondError maps a service error onto its HTTP status. Causes of server side
// failures are logged, clients only get a short message.
func respondError(c *gin.Context, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	abortWithError(c, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict, service.ErrUserAlreadyExists.Error()
	case errors.Is(err, domain.ErrAuthenticationRequired):
		if errors.Is(err, service.ErrAuthenticationFailed) {
			return http.StatusUnauthorized, "invalid email or password"
		}
		return http.StatusUnauthorized, domain.ErrAuthenticationRequired.Error()
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, domain.ErrNotOwner.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrPlanInUse):
		return http.StatusConflict, domain.ErrPlanInUse.Error()
	case errors.Is(err, generator.ErrUnavailable):
		return http.StatusServiceUnavailable, generator.ErrUnavailable.Error()
	case errors.Is(err, service.ErrExportUnavailable):
		return http.StatusServiceUnavailable, service.ErrExportUnavailable.Error()
	case errors.Is(err, generator.ErrUpstream):
		return http.StatusServiceUnavailable, generator.ErrUpstream.Error() + ", try again"
	case errors.Is(err, generator.ErrBadOutput):
		return http.StatusBadGateway, generator.ErrBadOutput.Error()
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, "storage is temporarily unavailable, try again"
	default:
		return http.StatusInternalServerError, "an unexpected error occurred"
	}
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", domain.ErrAuthenticationRequired
	}
	idStr, ok := idRaw.(string)
	if !ok || idStr == "" {
		return "", domain.ErrAuthenticationRequired
	}
	return idStr, nil
}
