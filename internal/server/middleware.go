package server

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID carries the acting user, set by the session layer in
	// front of this service.
	HeaderUserID = "X-User-ID"
)

// RequestContext attaches the request id and the acting user to the
// request context. The request id is echoed back.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Header(HeaderRequestID, rid)
		ctx := common.WithRequestID(c.Request.Context(), rid)

		var actor int64
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id < 0 {
				respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "X-User-ID invalide")
				c.Abort()
				return
			}
			actor = id
		}
		c.Request = c.Request.WithContext(common.WithActorID(ctx, actor))
		c.Next()
	}
}

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ctx := c.Request.Context()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", common.RequestIDFromContext(ctx),
		}
		if actor := common.ActorIDFromContext(ctx); actor != 0 {
			fields = append(fields, "user_id", actor)
		}
		switch {
		case status >= 500:
			logger.Error("http.request", fields...)
		case status >= 400:
			logger.Warn("http.request", fields...)
		default:
			logger.Info("http.request", fields...)
		}
	}
}

// CORS allows the admin UI origins. "*" allows any origin without
// credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Requested-With", HeaderRequestID, HeaderUserID},
		ExposeHeaders: []string{HeaderRequestID, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
