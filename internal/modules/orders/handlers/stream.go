package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/utils"
	"nhooyr.io/websocket"
)

const (
	streamBuffer       = 32
	streamWriteTimeout = 5 * time.Second
	streamPingInterval = 30 * time.Second
)

// orderFilter passes order events that involve userID. Admins see all of them.
func orderFilter(s auth.Session) events.Filter {
	return func(e events.Event) bool {
		switch e.Type {
		case events.OrderPlaced, events.OrderAccepted, events.OrderRejected:
		default:
			return false
		}
		if s.Role == domain.RoleAdmin {
			return true
		}

		key := "consumer_id"
		if s.Role == domain.RoleFarmer {
			key = "farmer_id"
		}
		id, _ := e.Data[key].(float64)
		return int64(id) == s.UserID
	}
}

// HandleStream handles GET /api/orders/stream, pushing the caller's order events over a
// WebSocket as JSON text messages.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		utils.WriteError(w, h.log, http.StatusServiceUnavailable, "Order stream unavailable")
		return
	}

	s := auth.FromContext(r.Context())

	// The stream outlives the server's per-request deadlines
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch, cancel := h.bus.Subscribe(orderFilter(s), streamBuffer)
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	h.log.Info().Int64("user_id", s.UserID).Str("role", string(s.Role)).Msg("Order stream connected")

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Int64("user_id", s.UserID).Msg("Order stream disconnected")
			return
		case <-ping.C:
			pingCtx, done := context.WithTimeout(ctx, streamWriteTimeout)
			err := conn.Ping(pingCtx)
			done()
			if err != nil {
				return
			}
		case e, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to encode order event")
				continue
			}
			writeCtx, done := context.WithTimeout(ctx, streamWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			done()
			if err != nil {
				h.log.Debug().Err(err).Msg("Order stream write failed")
				return
			}
		}
	}
}
