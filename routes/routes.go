package routes

import (
	"github.com/gin-gonic/gin"

	"yoyaku/handlers"
	"yoyaku/middleware"
)

// RegisterRoutes wires the webhook and operational endpoints.
func RegisterRoutes(r *gin.Engine, dialogue *handlers.DialogueHandler) {
	r.POST("/webhook", middleware.RateLimitMiddleware(), handlers.Webhook(dialogue))
	r.GET("/health", handlers.Health)
}
