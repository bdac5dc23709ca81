package router

import (
	"github.com/labstack/echo/v4"

	"lapakin/internal/adapter/api/handler"
	"lapakin/internal/adapter/api/middleware"
)

// SetupMessageRouter mounts the messaging boundary (excluding WebSocket).
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	// Without counterpartyId the GET serves the directory; with it, the
	// pair's history.
	messageGroup.GET("", messageHandler.GetMessages)
	messageGroup.POST("", messageHandler.SendMessage)
	messageGroup.PUT("/read", messageHandler.MarkRead)
}
