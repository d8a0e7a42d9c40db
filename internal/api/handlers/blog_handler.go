package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/services"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

type BlogHandler struct {
	svc    services.BlogService
	redis  *redis.Client // nil disables the async queue
	stream string
}

func NewBlogHandler(svc services.BlogService, rdb *redis.Client, stream string) *BlogHandler {
	if stream == "" {
		stream = "blog:generate:stream"
	}
	return &BlogHandler{svc: svc, redis: rdb, stream: stream}
}

type GenerateBlogRequest struct {
	Link string `json:"link" binding:"required"`
}

func (h *BlogHandler) Generate(c *gin.Context) {
	var req GenerateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "BlogHandler.Generate", "invalid request body", err))
		return
	}

	blog, err := h.svc.Generate(c.Request.Context(), req.Link)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, blog)
}

type GenerateAsyncResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// GenerateAsync enqueues the request on the Redis stream consumed by the
// worker pool and returns immediately; clients follow progress over the
// websocket endpoint.
func (h *BlogHandler) GenerateAsync(c *gin.Context) {
	const op = "BlogHandler.GenerateAsync"

	if h.redis == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "async generation requires redis", nil))
		return
	}

	var req GenerateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	requestID := uuid.NewString()
	err := h.redis.XAdd(c.Request.Context(), &redis.XAddArgs{
		Stream: h.stream,
		Values: map[string]any{
			"request_id": requestID,
			"link":       req.Link,
			"ts_unix":    time.Now().UTC().Unix(),
		},
	}).Err()
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to enqueue generation", err))
		return
	}

	c.JSON(http.StatusAccepted, GenerateAsyncResponse{
		RequestID: requestID,
		Status:    "queued",
	})
}

func (h *BlogHandler) List(c *gin.Context) {
	rows, err := h.svc.ListPosts(c.Request.Context(), 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogs": rows})
}

func (h *BlogHandler) Get(c *gin.Context) {
	row, err := h.svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.svc.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
