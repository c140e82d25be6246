package router

import (
	"github.com/gin-gonic/gin"

	"docledger/internal/handler"
	"docledger/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	docH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// Processing pipeline
	r.POST("/process-document", docH.Process)
	r.POST("/inference-document", docH.Inference)

	// Prompt workbench
	r.POST("/try-prompt", docH.TryPrompt)
	r.POST("/save-prompt", docH.SavePrompt)
	r.POST("/document/apply-prompt-to-layout", docH.ApplyPromptToLayout)

	// Registry and ledger reads
	r.GET("/documents", docH.List)
	r.GET("/documents-with-versions", docH.ListWithVersions)
	r.GET("/document/:id/versions", docH.GetVersions)
	r.PUT("/document/:id/version/:version", docH.UpdateVersion)

	r.DELETE("/delete-all-documents", docH.DeleteAll)

	return r
}
