package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"petal-chatbot-backend/config"
	"petal-chatbot-backend/memory"
	"petal-chatbot-backend/routes"
	"petal-chatbot-backend/services"
	"petal-chatbot-backend/utils"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cfg := config.Get()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := utils.NewFileLogger(cfg.LogDir)

	// Select the conversation memory backend
	store, disconnect, err := buildMemory(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize conversation memory: %v", err)
	}
	defer disconnect()

	// Generation backend is optional; the pipeline degrades to templates.
	var completer services.Completer
	if aiService := services.NewAIService(cfg); aiService != nil {
		completer = aiService
		log.Println("Generation backend configured")
	} else {
		log.Println("WARNING: No OPENAI_API_KEY set, running on template responses only")
	}

	retriever := services.NewContentRetriever(cfg)
	chatbotService := services.NewChatbotService(store, retriever, completer, logger)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(corsMiddleware(cfg.Security.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":        "ok",
			"timestamp":     time.Now(),
			"ai_configured": cfg.AIEnabled(),
			"memory":        cfg.Memory.Backend,
		})
	})

	// Setup all routes
	routes.SetupRoutes(router, chatbotService, store)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// buildMemory constructs the configured ConversationMemory backend and a
// cleanup function to run at shutdown.
func buildMemory(cfg *config.Config) (memory.ConversationMemory, func(), error) {
	if cfg.Memory.Backend == "mongodb" {
		store, err := memory.NewMongoStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Disconnect(); err != nil {
				log.Printf("Failed to disconnect from MongoDB: %v", err)
			}
		}, nil
	}
	return memory.NewInMemoryStore(cfg.Memory.Window), func() {}, nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Admin-Signature-256")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
