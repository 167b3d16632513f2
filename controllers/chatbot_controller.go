package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"petal-chatbot-backend/memory"
	"petal-chatbot-backend/models"
	"petal-chatbot-backend/services"
)

type ChatbotController struct {
	chatbotService *services.ChatbotService
	memory         memory.ConversationMemory
}

func NewChatbotController(chatbotService *services.ChatbotService, store memory.ConversationMemory) *ChatbotController {
	return &ChatbotController{
		chatbotService: chatbotService,
		memory:         store,
	}
}

// HandleChat processes one chat message and returns the routed response.
func (cc *ChatbotController) HandleChat(c *gin.Context) {
	var req models.ChatRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	response := cc.chatbotService.HandleMessage(c.Request.Context(), userID, req.Message)
	c.JSON(http.StatusOK, response)
}

// GetChatHistory retrieves recent turns for a user.
func (cc *ChatbotController) GetChatHistory(c *gin.Context) {
	userID := c.Param("userId")

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	history, err := cc.memory.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve chat history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"count":   len(history),
	})
}

// ClearChatHistory removes all stored turns for a user.
func (cc *ChatbotController) ClearChatHistory(c *gin.Context) {
	userID := c.Param("userId")

	if err := cc.memory.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear chat history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chat history cleared successfully",
	})
}

// GetUserStats returns per-user conversation statistics.
func (cc *ChatbotController) GetUserStats(c *gin.Context) {
	userID := c.Param("userId")

	stats, err := cc.memory.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
