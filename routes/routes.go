package routes

import (
	"github.com/gin-gonic/gin"

	"petal-chatbot-backend/controllers"
	"petal-chatbot-backend/memory"
	"petal-chatbot-backend/middleware"
	"petal-chatbot-backend/services"
)

func SetupRoutes(router *gin.Engine, chatbotService *services.ChatbotService, store memory.ConversationMemory) {
	// Initialize controllers
	chatbotController := controllers.NewChatbotController(chatbotService, store)
	wsController := controllers.NewWebSocketController(chatbotService)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		// Chat (basic access)
		public.POST("/chat", chatbotController.HandleChat)

		// WebSocket for real-time chat
		public.GET("/ws", wsController.HandleWebSocket)
	}

	// Admin routes (HMAC-signed requests only)
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.VerifyAdminSignature())
	{
		admin.GET("/history/:userId", chatbotController.GetChatHistory)
		admin.POST("/history/:userId/clear", chatbotController.ClearChatHistory)
		admin.GET("/stats/:userId", chatbotController.GetUserStats)
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})
}
