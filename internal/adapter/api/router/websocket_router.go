package router

import (
	"github.com/labstack/echo/v4"

	"lapakin/internal/adapter/api/handler"
)

// SetupWebSocketRouter mounts the presence/notification socket. Auth happens
// inside the handler because the token arrives as a query parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
