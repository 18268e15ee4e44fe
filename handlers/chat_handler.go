package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
	"github.com/egor/assistchat/session"
)

// ChatHandler обслуживает текстовый диалог: сообщение, история, сброс.
type ChatHandler struct {
	registry *session.Registry
	logger   *zap.Logger
}

// NewChatHandler создает обработчик диалога.
func NewChatHandler(registry *session.Registry, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{registry: registry, logger: logger}
}

// SendMessage обрабатывает POST /api/chat/message: один ход диалога.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("некорректное тело запроса", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	sess := h.registry.GetOrCreate(req.SessionID, req.UserID)

	result, err := sess.Submit(c.Request.Context(), session.Input{
		Text:     req.Message,
		Language: req.Language,
		Location: req.Location,
	})

	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		// Пустой ввод — тихий no-op: журнал не растёт, сетевого вызова нет.
		c.JSON(http.StatusOK, currentState(sess))
		return
	case errors.Is(err, session.ErrTurnInFlight):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "a turn is already in flight for this session"})
		return
	case errors.Is(err, session.ErrSessionReset):
		c.JSON(http.StatusConflict, gin.H{"error": "session was reset while the turn was in flight"})
		return
	case err != nil:
		h.logger.Error("ошибка обработки хода", zap.String("sessionId", sess.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, toChatResponse(sess.ID, result))
}

// GetHistory обрабатывает GET /api/chat/history/:id: журнал сессии.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sess, found := h.registry.Get(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"messages":   sess.Messages(),
	})
}

// ResetRequest — запрос на сброс сессии.
type ResetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Reset обрабатывает POST /api/chat/reset: атомарный сброс сессии.
func (h *ChatHandler) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	sess, found := h.registry.Get(req.SessionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	sess.Reset()
	h.logger.Info("сессия сброшена", zap.String("sessionId", sess.ID))

	c.JSON(http.StatusOK, currentState(sess))
}

// GetQuickReplies обрабатывает GET /api/chat/quick-replies/:id.
func (h *ChatHandler) GetQuickReplies(c *gin.Context) {
	sess, found := h.registry.Get(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sess.ID,
		"quick_replies": sess.QuickReplies(),
	})
}

// currentState собирает ответ по текущему состоянию сессии без нового хода.
// Response — текст последнего сообщения бота.
func currentState(sess *session.Session) models.ChatResponse {
	slots := sess.Slots()
	messages := sess.Messages()

	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleBot {
			last = messages[i].Text
			break
		}
	}

	return models.ChatResponse{
		SessionID:       sess.ID,
		Response:        last,
		Expecting:       slots.Expecting,
		Date:            slots.Date,
		Time:            slots.Time,
		SelectedService: slots.SelectedService,
		Issue:           slots.Issue,
		HumanOperator:   slots.HumanOperator,
		QuickReplies:    sess.QuickReplies(),
	}
}

// toChatResponse переводит результат хода в ответ фронтенду.
func toChatResponse(sessionID string, result *session.Result) models.ChatResponse {
	return models.ChatResponse{
		SessionID:       sessionID,
		Response:        result.Reply,
		Expecting:       result.Slots.Expecting,
		Date:            result.Slots.Date,
		Time:            result.Slots.Time,
		SelectedService: result.Slots.SelectedService,
		Issue:           result.Slots.Issue,
		HumanOperator:   result.Slots.HumanOperator,
		QuickReplies:    result.QuickReplies,
		Products:        result.Products,
	}
}
