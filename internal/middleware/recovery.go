package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// Recovery converts panics into a 500 response and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(CtxRequestIDKey)),
					zap.Any("error", r),
				)
				// Avoid leaking internals to clients
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, apperrors.New(apperrors.ErrNotFound.Code, fmt.Sprintf("route %s not found", c.Request.URL.Path), apperrors.ErrNotFound.StatusCode))
}
