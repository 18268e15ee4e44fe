package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
	"github.com/egor/assistchat/session"
	"github.com/egor/assistchat/voice"
)

// VoiceHandler — граница голосового ввода: принять запись, расшифровать,
// передать текст обычным путём через диалоговое ядро.
type VoiceHandler struct {
	transcriber *voice.Transcriber
	registry    *session.Registry
	logger      *zap.Logger
}

// NewVoiceHandler создает обработчик голосовых сообщений.
func NewVoiceHandler(transcriber *voice.Transcriber, registry *session.Registry, logger *zap.Logger) *VoiceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceHandler{transcriber: transcriber, registry: registry, logger: logger}
}

// ProcessVoice обрабатывает POST /api/chat/voice: multipart-загрузка аудио
// плюс user_id/session_id. Почти тихая запись — no-op, до диалогового ядра
// не доходит.
func (h *VoiceHandler) ProcessVoice(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	defer file.Close()

	sessionID := c.PostForm("session_id")
	userID := c.PostForm("user_id")
	language := c.PostForm("language")

	// Проверка тишины идёт до реестра: no-op не должен заводить сессию.
	if voice.TooQuiet(header.Size) {
		h.logger.Info("запись слишком короткая, пропускаем",
			zap.String("sessionId", sessionID), zap.Int64("bytes", header.Size))
		resp := models.ChatResponse{
			SessionID:    sessionID,
			QuickReplies: session.DefaultQuickReplies(),
		}
		if sess, found := h.registry.Get(sessionID); found {
			resp = currentState(sess)
			resp.Response = ""
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	sess := h.registry.GetOrCreate(sessionID, userID)

	text, err := h.transcriber.Transcribe(c.Request.Context(), header.Filename, file, language)
	if err != nil {
		// Ошибка расшифровки остаётся на границе захвата:
		// журнал и слоты сессии не меняются.
		h.logger.Warn("ошибка расшифровки аудио",
			zap.String("sessionId", sess.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to transcribe audio"})
		return
	}

	result, err := sess.Submit(c.Request.Context(), session.Input{
		Text:     text,
		Language: language,
		Voice:    true,
	})

	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		// Расшифровка пустая — эквивалент тихой записи.
		resp := currentState(sess)
		resp.Response = ""
		c.JSON(http.StatusOK, resp)
		return
	case errors.Is(err, session.ErrTurnInFlight):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "a turn is already in flight for this session"})
		return
	case errors.Is(err, session.ErrSessionReset):
		c.JSON(http.StatusConflict, gin.H{"error": "session was reset while the turn was in flight"})
		return
	case err != nil:
		h.logger.Error("ошибка обработки голосового хода",
			zap.String("sessionId", sess.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process voice message"})
		return
	}

	resp := toChatResponse(sess.ID, result)
	resp.Transcription = text
	c.JSON(http.StatusOK, resp)
}
