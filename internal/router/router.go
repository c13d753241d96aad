package router

import (
	"github.com/codrzexl/UniHub/internal/handlers"
	"github.com/codrzexl/UniHub/internal/middleware"
	"github.com/codrzexl/UniHub/internal/search"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, index *search.Index) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	doubtHandler := handlers.NewDoubtHandler()
	noteHandler := handlers.NewNoteHandler()
	eventHandler := handlers.NewEventHandler()
	searchHandler := handlers.NewSearchHandler(index)

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	api.GET("/doubts", doubtHandler.List)
	api.GET("/doubts/:id", doubtHandler.Detail)
	api.GET("/notes", noteHandler.List)
	api.GET("/notes/:id", noteHandler.Detail)
	api.GET("/events", eventHandler.List)
	api.GET("/events/:id", eventHandler.Detail)
	api.GET("/search", searchHandler.Search)
	api.GET("/search/suggestions", searchHandler.Suggestions)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/doubts", doubtHandler.Create)
		authorized.POST("/doubts/:id/vote", doubtHandler.Vote)
		authorized.PATCH("/doubts/:id/solve", doubtHandler.ToggleSolved)
		authorized.POST("/doubts/:id/answers", doubtHandler.CreateAnswer)
		authorized.POST("/doubts/:id/answers/:answerId/vote", doubtHandler.VoteAnswer)
		authorized.DELETE("/doubts/:id", doubtHandler.Delete)

		authorized.POST("/notes", noteHandler.Create)
		authorized.POST("/notes/:id/like", noteHandler.Like)
		authorized.POST("/notes/:id/download", noteHandler.Download)

		authorized.POST("/events", eventHandler.Create)
		authorized.POST("/events/:id/rsvp", eventHandler.RSVP)
	}
}
