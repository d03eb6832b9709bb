package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/releasetrack/pkg/mail"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// Health reports relay liveness and whether provider credentials are configured.
// It never reveals the credentials themselves.
func Health(settings mail.Settings) gin.HandlerFunc {
	transport := settings.Transport
	if transport == "" {
		transport = mail.TransportSMTP
	}
	configured := settings.ProviderConfigured()

	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":              "ok",
			"provider_configured": configured,
			"transport":           transport,
			"time":                time.Now().UTC(),
		})
	}
}
