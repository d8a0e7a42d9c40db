package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/api/handlers"
)

type Deps struct {
	Blog *handlers.BlogHandler
	WS   *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/generate_blog", d.Blog.Generate)
	r.POST("/generate_blog/async", d.Blog.GenerateAsync)

	r.GET("/blogs", d.Blog.List)
	r.GET("/blogs/:id", d.Blog.Get)
	r.DELETE("/blogs/:id", d.Blog.Delete)

	// WebSocket progress for queued generations
	r.GET("/ws/generate/:request_id", d.WS.GenerateWS)
}
