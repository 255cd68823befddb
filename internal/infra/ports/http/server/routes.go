package server

import (
	"github.com/labstack/echo/v4"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/infra/ports/http/handlers"
	"github.com/voxroom/voxroom/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	roomHandler *handlers.RoomHandler,
	iceHandler *handlers.IceHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	api := e.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.POST("/token", roomHandler.IssueToken)

			v1.POST("/rooms", roomHandler.CreateRoom)
			v1.GET("/rooms/:id", roomHandler.GetRoom)
			v1.DELETE("/rooms/:id", roomHandler.DeleteRoom)

			v1.GET("/ice", iceHandler.IceServers)
		}
	}

	e.GET("/ws", wsHandler.Handle)

	e.Static("/", cfg.StaticDir)

	return e
}
