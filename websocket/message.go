package websocket

import (
	"encoding/json"

	"github.com/egor/assistchat/models"
)

// Типы событий push-канала.
const (
	TypeNewMessage   = "new_message"
	TypeSessionReset = "session_reset"
)

// Event представляет одно событие для WebSocket-клиента.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent создает событие с указанным типом и данными.
func NewEvent(eventType string, payload interface{}) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Event{
		Type:    eventType,
		Payload: payloadJSON,
	})
}

// NewChatMessage создает событие о новом сообщении в журнале сессии.
func NewChatMessage(sessionID string, message models.Message) ([]byte, error) {
	payload := struct {
		SessionID string         `json:"session_id"`
		Message   models.Message `json:"message"`
	}{
		SessionID: sessionID,
		Message:   message,
	}

	return NewEvent(TypeNewMessage, payload)
}

// NewSessionResetMessage создает событие о сбросе сессии.
func NewSessionResetMessage(sessionID string) ([]byte, error) {
	payload := struct {
		SessionID string `json:"session_id"`
	}{SessionID: sessionID}

	return NewEvent(TypeSessionReset, payload)
}
