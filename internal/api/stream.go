package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/world-intel/internal/logger"
)

// StreamConfig holds SSE streamer tunables.
type StreamConfig struct {
	// IntervalMs is the default tick interval.
	IntervalMs int
	// MaxAge is the edge ceiling after which the server closes the stream.
	MaxAge time.Duration
}

// Tick interval clamp and window constants.
const (
	minIntervalMs = 2500
	maxIntervalMs = 15000

	defaultStreamSinceHours = 6
	initItemLimit           = 40

	tickSinceHours = 2
	tickItemLimit  = 8

	defaultStreamMaxAge = 90 * time.Second
)

func (s *StreamConfig) setDefaults() {
	if s.IntervalMs == 0 {
		s.IntervalMs = 4000
	}
	if s.MaxAge == 0 {
		s.MaxAge = defaultStreamMaxAge
	}
}

// HandleStream handles GET /api/stream: a single long-lived SSE response
// per client. One init event, then ticks until the client disconnects or
// the age ceiling closes the stream. Errors are emitted as error events
// and never terminate the connection.
func (h *Handler) HandleStream(c *gin.Context) {
	sinceHours, err := queryFloat(c, "sinceHours", defaultStreamSinceHours)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	intervalMs, err := queryInt(c, "intervalMs", h.stream.IntervalMs)
	if err != nil {
		h.clientError(c, err.Error())
		return
	}
	if intervalMs < minIntervalMs {
		intervalMs = minIntervalMs
	}
	if intervalMs > maxIntervalMs {
		intervalMs = maxIntervalMs
	}

	setSSEHeaders(c.Writer)
	c.Writer.Flush()

	if h.metrics != nil {
		h.metrics.SSEOpened()
		defer h.metrics.SSEClosed()
	}

	// The request context cancels the timers and any in-flight upstream
	// work the moment the client goes away.
	ctx := c.Request.Context()

	if err := h.emitInit(c, sinceHours); err != nil {
		h.logger.Debug("sse init write failed", logger.Error(err))
		return
	}

	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	deadline := time.NewTimer(h.stream.MaxAge)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("sse client disconnected")
			return
		case <-deadline.C:
			h.logger.Debug("sse stream reached max age")
			return
		case <-ticker.C:
			if err := h.emitTick(c); err != nil {
				h.logger.Debug("sse tick write failed", logger.Error(err))
				return
			}
		}
	}
}

func (h *Handler) emitInit(c *gin.Context, sinceHours float64) error {
	items := h.agg.Items(c.Request.Context(), sinceHours, initItemLimit)
	return writeEvent(c.Writer, "init", gin.H{
		"ts":    h.now().UnixMilli(),
		"count": len(items),
	})
}

func (h *Handler) emitTick(c *gin.Context) error {
	items := h.agg.Items(c.Request.Context(), tickSinceHours, tickItemLimit)

	payload, err := json.Marshal(gin.H{
		"ts":    h.now().UnixMilli(),
		"items": emptyAsList(items),
	})
	if err != nil {
		// Reported in-band; a bad tick never drops the stream.
		return writeEvent(c.Writer, "error", gin.H{"error": err.Error()})
	}
	return writeRawEvent(c.Writer, "tick", payload)
}

// setSSEHeaders sets the standard SSE headers.
func setSSEHeaders(w gin.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// writeEvent marshals data and writes one SSE frame.
func writeEvent(w gin.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return writeRawEvent(w, event, payload)
}

// writeRawEvent writes one SSE frame and flushes it.
func writeRawEvent(w gin.ResponseWriter, event string, payload []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write event %s: %w", event, err)
	}
	w.Flush()
	return nil
}
