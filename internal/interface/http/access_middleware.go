package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-clock/internal/domain/access"
)

// accessMiddleware requires a reading pass when the gate is enabled.
func accessMiddleware(svc access.Service) gin.HandlerFunc {
	if svc == nil || !svc.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, access.CodeUnauthorized, "reading pass required", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, access.CodeUnauthorized, "invalid authorization header", nil))
			return
		}
		pass, err := svc.Validate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, accessHTTPError(err))
			return
		}
		setPass(c, pass)
		c.Next()
	}
}

func accessHTTPError(err error) *HTTPError {
	return fromAppError(err, access.CodeAccessError, "reading pass check failed")
}
