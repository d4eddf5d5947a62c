package routes

import (
	"net/http"

	"taskflow-api/internal/handlers"
	"taskflow-api/internal/logging"
	"taskflow-api/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies holds the handlers and middleware mounted by SetupRoutes.
type Dependencies struct {
	Tasks        *handlers.TaskHandler
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	WS           *handlers.WSHandler
	Authenticate gin.HandlerFunc
	Logger       logrus.FieldLogger
}

func SetupRoutes(deps Dependencies) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	if deps.Logger != nil {
		ginRouter.Use(logging.Middleware(deps.Logger))
	}

	// CORS middleware (for frontend integration)
	ginRouter.Use(middleware.CORS())

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Taskflow API is running",
		})
	})

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/auth/register", deps.Auth.Register)
		api.POST("/auth/login", deps.Auth.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(deps.Authenticate)
	{
		protectedRoutes.POST("/auth/logout", deps.Auth.Logout)
		protectedRoutes.GET("/auth/me", deps.Auth.Me)

		// Task endpoints
		protectedRoutes.GET("/tasks", deps.Tasks.List)
		protectedRoutes.POST("/tasks", deps.Tasks.Create)
		protectedRoutes.GET("/tasks/:id", deps.Tasks.Show)
		protectedRoutes.PUT("/tasks/:id", deps.Tasks.Update)
		protectedRoutes.PATCH("/tasks/:id", deps.Tasks.Update)
		protectedRoutes.DELETE("/tasks/:id", deps.Tasks.Delete)
		protectedRoutes.POST("/tasks/:id/toggle", deps.Tasks.Toggle)
		protectedRoutes.POST("/tasks/:id/assign", deps.Tasks.Assign)
		protectedRoutes.GET("/stats", deps.Tasks.Stats)

		// Users endpoints
		protectedRoutes.GET("/users", deps.Users.List)
		protectedRoutes.GET("/users/lookup", deps.Users.Lookup)

		// Realtime task events
		protectedRoutes.GET("/ws", deps.WS.Stream)
	}

	return ginRouter
}
