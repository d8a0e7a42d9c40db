package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/workers"
)

type WSHandler struct {
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(rdb *redis.Client) *WSHandler {
	return &WSHandler{
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// GenerateWS forwards the pub/sub events of one queued generation
// (progress stages, then the result or an error) to the client and
// closes when the request reaches a terminal state.
func (h *WSHandler) GenerateWS(c *gin.Context) {
	const op = "WSHandler.GenerateWS"

	if h.redis == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "progress streaming requires redis", nil))
		return
	}

	requestID := c.Param("request_id")
	if requestID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing request_id", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, workers.StatusChannel(requestID))
	defer pubsub.Close()

	// drain client reads so close frames are processed
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}

			var ev struct {
				Type string `json:"type"`
			}
			if json.Unmarshal([]byte(m.Payload), &ev) == nil {
				if ev.Type == "result" || ev.Type == "error" {
					return
				}
			}
		}
	}
}
