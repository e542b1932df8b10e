package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veritas-team/meeting-pipeline/pkg/ai"
	"github.com/veritas-team/meeting-pipeline/pkg/config"
)

// SignatureHeader carries the HMAC-SHA256 hex signature of the request body
const SignatureHeader = "X-Cron-Signature"

// CronAuth guards the pipeline trigger surface. A request is accepted when
// it carries a valid body signature under the shared cron secret, or when
// it identifies as the configured scheduler user agent. With no secret
// configured outside production, the check is skipped for local work.
type CronAuth struct {
	secret    string
	userAgent string
	enforce   bool
}

// NewCronAuth creates the cron auth middleware from server config
func NewCronAuth(cfg *config.ServerConfig) *CronAuth {
	return &CronAuth{
		secret:    cfg.CronSecret,
		userAgent: cfg.CronUserAgent,
		enforce:   cfg.CronSecret != "" || cfg.Environment == "production",
	}
}

// Require is the echo middleware function
func (m *CronAuth) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.enforce {
			return next(c)
		}

		req := c.Request()

		if m.userAgent != "" && req.UserAgent() == m.userAgent {
			return next(c)
		}

		signature := req.Header.Get(SignatureHeader)
		if signature == "" {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"error":   "unauthorized",
				"message": "pipeline triggers require a scheduler signature",
			})
		}

		body, err := io.ReadAll(req.Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":   "bad_request",
				"message": "unreadable request body",
			})
		}
		// Hand the body back to downstream handlers
		req.Body = io.NopCloser(bytes.NewReader(body))

		if !ai.VerifyHMAC(m.secret, body, signature) {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"error":   "unauthorized",
				"message": "invalid scheduler signature",
			})
		}

		return next(c)
	}
}
