package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianReason/services/llm"
)

// HealthCheck reports liveness plus the resolved tier models so
// operators can see at a glance what each tier will run.
func HealthCheck(backendName string, tiers *llm.TierRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"backend": backendName,
			"models":  tiers.Models(),
		})
	}
}
