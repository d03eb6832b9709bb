package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// actorID returns the acting user set by middleware.Actor, or "" for anonymous calls.
func actorID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(middleware.CtxActorIDKey)
}

func pathID(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Param(key))
}
