package handler

import (
	"io"
	"net/http"
	"time"

	"bandpay/internal/adapter/http/dto"
	"bandpay/internal/core/domain"
	"bandpay/internal/scanfeed"
	"bandpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

// ScanHandler handles the NFC scan ingest and the scan feed transports.
type ScanHandler struct {
	hub *scanfeed.Hub
	log zerolog.Logger

	upgrader websocket.Upgrader
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(hub *scanfeed.Hub, log zerolog.Logger) *ScanHandler {
	return &ScanHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Admin console runs on the venue LAN behind its own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Ingest handles POST /api/scan/. The reader is fire-and-forget: malformed
// payloads are acknowledged and dropped so a flaky reader cannot wedge the
// scan loop.
func (h *ScanHandler) Ingest(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn().Err(err).Msg("dropping malformed scan payload")
		response.OK(c, gin.H{"accepted": false})
		return
	}
	dto.SanitizeStruct(&req)

	h.hub.Publish(domain.ScanEvent{
		BandID:    domain.NormalizeBandID(req.BandID),
		Timestamp: time.Now().UTC(),
	})
	response.OK(c, gin.H{"accepted": true})
}

// StreamSSE handles GET /api/scan/ as a Server-Sent Events stream.
func (h *ScanHandler) StreamSSE(c *gin.Context) {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("scan", dto.NewScanEventResponse(ev))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// StreamWS handles GET /api/scan/ws as a websocket feed.
func (h *ScanHandler) StreamWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	// Discard inbound frames; the feed is one-way. Read errors signal
	// the peer went away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(dto.NewScanEventResponse(ev)); err != nil {
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}
