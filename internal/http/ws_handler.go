package httpapi

import (
	"context"
	"net/http"

	"github.com/jg-Harshini/Trackfence/internal/notifier"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler bridges the per-patient Redis channels to a WebSocket so
// caretaker dashboards receive location and alert pushes in real time.
type WSHandler struct {
	notifier *notifier.RedisNotifier
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(n *notifier.RedisNotifier, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		notifier: n,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 面向局域网看护端，放开跨域检查
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsEnvelope struct {
	Channel string `json:"channel"`
	Payload string `json:"payload"`
}

// Serve GET /ws/{patientId}
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, patientID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("patient_id", patientID), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.notifier.Subscribe(ctx,
		notifier.LocationChannel(patientID),
		notifier.AlertChannel(patientID),
	)
	defer sub.Close()

	h.logger.Info("websocket client connected", zap.String("patient_id", patientID))

	// 读泵只为感知客户端断开
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket client disconnected", zap.String("patient_id", patientID))
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env := wsEnvelope{Channel: msg.Channel, Payload: msg.Payload}
			if err := conn.WriteJSON(env); err != nil {
				h.logger.Warn("websocket write failed", zap.String("patient_id", patientID), zap.Error(err))
				return
			}
		}
	}
}
