package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/middleware"
)

type RouterDeps struct {
	Files   *FileHandler
	AI      *AIHandler
	Vectors *VectorHandler
	// GenerateWindow throttles the expensive generation endpoints; zero
	// disables throttling.
	GenerateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/files/upload", deps.Files.Upload)
	api.GET("/files", deps.Files.List)
	api.GET("/files/:id", deps.Files.Get)
	api.GET("/files/:id/download", deps.Files.Download)
	api.DELETE("/files/:id", deps.Files.Delete)
	api.GET("/assets/:key", deps.Files.Raw)

	genGroup := api.Group("")
	genGroup.Use(middleware.RateLimit(deps.GenerateWindow))
	genGroup.POST("/ai/diagram", deps.AI.Diagram)
	genGroup.POST("/ai/roadmap", deps.AI.Roadmap)
	genGroup.POST("/ai/resources", deps.AI.Resources)

	api.POST("/ai/chat", deps.AI.Chat)
	api.GET("/ai/chat/:session_id", deps.AI.ChatHistory)
	api.DELETE("/ai/chat/:session_id", deps.AI.ClearChatHistory)
	api.GET("/ai/health", deps.AI.Health)

	api.POST("/vector/store", deps.Vectors.Store)
	api.POST("/vector/query", deps.Vectors.Query)
	api.GET("/vector/stats/:file_id", deps.Vectors.Stats)
	api.GET("/vector/health", deps.Vectors.Health)
	api.DELETE("/vector/:file_id", deps.Vectors.DeleteByFile)
}
