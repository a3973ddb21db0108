package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// allowedOrigins is the normalized origin allow-list.
type allowedOrigins struct {
	all   bool
	hosts []string          // host[:port] patterns for websocket.AcceptOptions
	exact map[string]string // scheme://host -> same, for CORS
}

func normalizeOrigins(origins []string, logger *zerolog.Logger) allowedOrigins {
	out := allowedOrigins{exact: make(map[string]string)}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			out.all = true
			continue
		}
		normalized, host, ok := normalizeOrigin(trimmed)
		if !ok {
			logger.Warn().Str("origin", origin).Msg("ignoring invalid origin in configuration")
			continue
		}
		out.exact[normalized] = normalized
		out.hosts = append(out.hosts, host)
	}
	return out
}

func normalizeOrigin(origin string) (normalized, host string, ok bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", "", false
	}
	host = strings.ToLower(parsed.Host)
	return strings.ToLower(parsed.Scheme) + "://" + host, host, true
}

func (a allowedOrigins) allows(origin string) bool {
	if a.all {
		return true
	}
	normalized, _, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, exists := a.exact[normalized]
	return exists
}

// CORSMiddleware lets browser frontends on allowed origins call the upload and login endpoints.
func CORSMiddleware(origins allowedOrigins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && origins.allows(origin) {
			h := c.Writer.Header()
			if origins.all {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
