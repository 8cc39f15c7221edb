package main

import (
	"agent-workspace/auth"
	"agent-workspace/internal/chat"
	"agent-workspace/internal/config"
	"agent-workspace/internal/db"
	"agent-workspace/internal/document"
	"agent-workspace/internal/middleware"
	"agent-workspace/internal/session"
	"agent-workspace/internal/store"
	"agent-workspace/internal/uistate"
	"agent-workspace/internal/worker"
	"agent-workspace/internal/workspace"
	"agent-workspace/redis"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	if config.AppConfig.Environment == "development" {
		db.SeedData()
	}

	// Initialize Redis
	redis.InitRedis()

	// Insert notifications travel over Redis pub/sub; without Redis the
	// server still answers reads but sessions receive no live updates.
	var notifier store.Notifier
	var uiStore uistate.Store = uistate.NewMemoryStore()
	if redis.RedisClient != nil {
		notifier = redis.NewNotifier(redis.RedisClient)
		uiStore = redis.NewUIStateStore(redis.RedisClient)
	}
	gateway := store.NewGormGateway(db.AppDb, notifier)

	// Background pool for read-status writes
	pool := worker.NewPool(4)
	defer pool.Shutdown()

	// Initialize services
	workspaceService := workspace.NewService(gateway)
	chatService := chat.NewService(gateway, workspaceService, chat.NewWebhookClient())
	documentService := document.NewService(gateway)

	// Initialize handlers
	workspaceHandler := workspace.NewHandler(workspaceService)
	chatHandler := chat.NewHandler(chatService)
	documentHandler := document.NewHandler(documentService)
	uistateHandler := uistate.NewHandler(uiStore)
	sessionHandler := session.NewHandler(gateway, chatService, documentService, pool)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	authorized := router.Group("/", auth.AuthMiddleWare())

	// Workspace routes
	authorized.GET("/workspaces/:workspaceId", workspaceHandler.ShowWorkspace)
	authorized.GET("/workspaces/:workspaceId/agents", workspaceHandler.ListAgents)
	authorized.GET("/workspaces/:workspaceId/agents/:agentId", workspaceHandler.ShowAgent)

	// Chat routes
	authorized.GET("/workspaces/:workspaceId/agents/:agentId/messages", chatHandler.ShowMessages)
	authorized.POST("/workspaces/:workspaceId/agents/:agentId/messages", chatHandler.SendMessage)
	authorized.POST("/workspaces/:workspaceId/agents/:agentId/read", chatHandler.MarkRead)

	// Document routes
	authorized.GET("/workspaces/:workspaceId/agents/:agentId/documents", documentHandler.ShowAgentDocuments)
	authorized.GET("/documents/:id", documentHandler.ShowDocument)

	// UI state routes
	authorized.GET("/ui/panel-width", uistateHandler.ShowPanelWidth)
	authorized.PUT("/ui/panel-width", uistateHandler.SavePanelWidth)
	authorized.GET("/ui/scroll/:agentId", uistateHandler.ShowScrollOffset)
	authorized.PUT("/ui/scroll/:agentId", uistateHandler.SaveScrollOffset)

	// Live session socket
	authorized.GET("/workspaces/:workspaceId/agents/:agentId/session", sessionHandler.Handle)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
