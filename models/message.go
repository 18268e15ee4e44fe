package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли сообщений в журнале диалога.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message представляет собой одно сообщение в журнале диалога.
// Журнал append-only: после добавления сообщение никогда не изменяется.
type Message struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role"` // "user" или "bot"
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []Product `json:"attachments,omitempty"` // товары/услуги от ответчика, передаются как есть
}

// NewMessage создает новое сообщение с указанной ролью и текстом.
func NewMessage(role, text string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewBotMessage создает сообщение бота с вложениями.
func NewBotMessage(text string, attachments []Product) Message {
	m := NewMessage(RoleBot, text)
	m.Attachments = attachments
	return m
}
