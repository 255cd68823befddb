package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voxroom/voxroom/internal/application/constant"
	"github.com/voxroom/voxroom/internal/domain"
	"github.com/voxroom/voxroom/internal/guard"
	"github.com/voxroom/voxroom/internal/infra/ports/http/dto"
	"github.com/voxroom/voxroom/internal/usecase"
)

type RoomHandler struct {
	roomUsecase usecase.RoomUsecase
}

func NewRoomHandler(roomUsecase usecase.RoomUsecase) *RoomHandler {
	return &RoomHandler{roomUsecase: roomUsecase}
}

func (h *RoomHandler) IssueToken(c echo.Context) error {
	token, err := h.roomUsecase.IssueToken(c.RealIP())
	if err != nil {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	return c.JSON(http.StatusCreated, dto.TokenResponse{Token: token})
}

func (h *RoomHandler) CreateRoom(c echo.Context) error {
	var req dto.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	meta := guard.RequestMetadata{
		UserAgent:    c.Request().UserAgent(),
		Origin:       c.Request().Header.Get("Origin"),
		SecFetchSite: c.Request().Header.Get("Sec-Fetch-Site"),
	}

	room, err := h.roomUsecase.CreateRoom(req.Token, c.RealIP(), meta)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
		case errors.Is(err, domain.ErrRoomCapacity):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "capacity reached"})
		case errors.Is(err, domain.ErrForbidden):
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		default:
			slog.Error("create room", slog.Any(constant.Error, err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create room"})
		}
	}

	slog.Info(
		"room created",
		slog.String(constant.RoomID, room.ID),
		slog.String(constant.Addr, c.RealIP()),
	)

	return c.JSON(http.StatusCreated, dto.CreateRoomResponse{
		RoomID:   room.ID,
		AdminKey: room.AdminKey,
	})
}

func (h *RoomHandler) GetRoom(c echo.Context) error {
	info, ok := h.roomUsecase.GetRoom(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
	}

	return c.JSON(http.StatusOK, dto.RoomInfoResponse{
		RoomID:       info.ID,
		Participants: info.Participants,
		CreatedAt:    info.CreatedAt,
	})
}

func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	err := h.roomUsecase.DeleteRoom(c.Param("id"), c.Request().Header.Get("X-Admin-Key"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		default:
			slog.Error("delete room", slog.Any(constant.Error, err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete room"})
		}
	}

	return c.NoContent(http.StatusNoContent)
}
