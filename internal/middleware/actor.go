package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/logger"
)

const (
	// ActorHeader names the user performing the request. Authentication is handled
	// upstream; the value is trusted once it parses as a user id.
	ActorHeader = "X-User-ID"
	// CtxActorIDKey is the gin context key holding the acting user id.
	CtxActorIDKey = "actor_id"
)

// Actor copies the acting user id from the request header into the gin context.
// A value that is not a user id is dropped and the request continues anonymously.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		switch {
		case actor == "":
		case models.IsValidID(actor):
			c.Set(CtxActorIDKey, actor)
		default:
			logger.WithModule("http").Warn("ignoring malformed actor header",
				zap.String("header", ActorHeader),
				zap.String("path", c.Request.URL.Path),
			)
		}
		c.Next()
	}
}
