package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kasuganosora/stalker/cache"
)

const keepAliveEvery = 30 * time.Second

// Handler streams relayed simulation events to browsers.
type Handler struct {
	pubsub  cache.PubSub
	channel string
	logger  *zap.Logger
}

// NewHandler creates a Handler reading from channel on pubsub.
func NewHandler(pubsub cache.PubSub, channel string, logger *zap.Logger) *Handler {
	if channel == "" {
		channel = cache.DefaultRelayChannel
	}
	return &Handler{pubsub: pubsub, channel: channel, logger: logger}
}

// ServeSSE handles GET /api/events. Each relayed envelope becomes one event
// named after its topic, with the envelope JSON as data.
func (h *Handler) ServeSSE(c *gin.Context) {
	ctx := c.Request.Context()
	msgCh, unsub, err := h.pubsub.Subscribe(ctx, h.channel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventName(msg.Payload), msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-ctx.Done():
			return
		}
	}
}

func eventName(payload string) string {
	var env cache.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.Topic == "" {
		return "message"
	}
	return env.Topic
}
