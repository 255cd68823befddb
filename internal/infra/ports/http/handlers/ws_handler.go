package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/application/constant"
	"github.com/voxroom/voxroom/internal/usecase"
)

const maxMessageSize = 512 * 1024 // chat images ride inside frames

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	signalingUsecase usecase.SignalingUsecase
}

func NewWebSocketHandler(cfg *config.Config, signalingUsecase usecase.SignalingUsecase) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		signalingUsecase: signalingUsecase,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}

	connID := uuid.New()
	conn := newWSConn(ws)

	go conn.writePump()

	h.signalingUsecase.HandleConnect(connID, conn)

	defer func() {
		h.signalingUsecase.HandleDisconnect(connID)
		conn.close()
	}()

	ws.SetReadLimit(maxMessageSize)

	if err := ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			h.handleWebsocketError(connID, err)
			return nil
		}

		h.signalingUsecase.HandleMessage(connID, msg)
	}
}

func (h *WebSocketHandler) handleWebsocketError(connID uuid.UUID, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			slog.Info("client disconnected", slog.String(constant.ConnID, connID.String()))
		default:
			slog.Warn(
				"websocket close error",
				slog.Any(constant.Error, err),
				slog.String(constant.ConnID, connID.String()),
			)
		}
	} else {
		slog.Warn(
			"websocket read",
			slog.Any(constant.Error, err),
			slog.String(constant.ConnID, connID.String()),
		)
	}
}
