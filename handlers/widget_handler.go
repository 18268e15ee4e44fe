package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egor/assistchat/session"
)

// WidgetBootstrap обрабатывает GET /api/widget/bootstrap.
// Встраиваемый виджет получает всё необходимое для первого рендера:
// адрес push-канала, приветствие и стартовые быстрые ответы.
// Данные диалога дальше приходят через WebSocket.
func WidgetBootstrap(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket": gin.H{
			"url":         "/ws",
			"query_param": "session_id",
		},
		"greeting":      session.GreetingText,
		"quick_replies": session.DefaultQuickReplies(),
	})
}
