package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, prepayHandler *PrepayHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Prepayment session routes
	api.POST("/loans/:loanId/prepayment-sessions", prepayHandler.StartSession)

	sessions := api.Group("/prepayment-sessions")
	sessions.GET("/:sessionId", prepayHandler.GetSession)
	sessions.PATCH("/:sessionId", prepayHandler.UpdateDraft)
	sessions.PUT("/:sessionId/transaction-date", prepayHandler.ChangeTransactionDate)
	sessions.POST("/:sessionId/rebate", prepayHandler.ApplyRebate)
	sessions.POST("/:sessionId/payment-details/toggle", prepayHandler.TogglePaymentDetails)
	sessions.POST("/:sessionId/submit", prepayHandler.Submit)
	sessions.DELETE("/:sessionId", prepayHandler.CancelSession)

	// WebSocket quote events
	e.GET("/ws", wsHandler.HandleWS)
}
