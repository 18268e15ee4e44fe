// Package websocket — push-канал рендереров: каждое добавление в журнал
// сессии доставляется подписанным клиентам (веб, виджет, мобильный).
package websocket

import (
	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
)

// envelope — сообщение с адресом: пустой sessionID означает «всем».
type envelope struct {
	sessionID string
	data      []byte
}

// Hub обрабатывает WebSocket соединения и маршрутизирует события
// по идентификатору сессии.
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Исходящие события для клиентов
	broadcast chan envelope

	// Регистрация клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	logger *zap.Logger
}

// NewHub создает новый Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run запускает цикл обработки Hub.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("клиент подключился",
				zap.String("sessionId", client.SessionID),
				zap.Int("clients", len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("клиент отключился",
					zap.String("sessionId", client.SessionID),
					zap.Int("clients", len(h.clients)))
			}
		case env := <-h.broadcast:
			for client := range h.clients {
				// Клиент без sessionID получает события всех сессий.
				if client.SessionID != "" && client.SessionID != env.sessionID {
					continue
				}
				select {
				case client.send <- env.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// publish кладёт событие в очередь, не блокируя вызывающего:
// sink вызывается из-под мьютекса сессии.
func (h *Hub) publish(sessionID string, data []byte) {
	select {
	case h.broadcast <- envelope{sessionID: sessionID, data: data}:
	default:
		h.logger.Warn("очередь WebSocket переполнена, событие пропущено",
			zap.String("sessionId", sessionID))
	}
}

// MessageAppended реализует session.Sink: новое сообщение в журнале.
func (h *Hub) MessageAppended(sessionID string, msg models.Message) {
	data, err := NewChatMessage(sessionID, msg)
	if err != nil {
		h.logger.Error("ошибка при маршализации сообщения", zap.Error(err))
		return
	}
	h.publish(sessionID, data)
}

// SessionReset реализует session.Sink: сессия сброшена.
func (h *Hub) SessionReset(sessionID string) {
	data, err := NewSessionResetMessage(sessionID)
	if err != nil {
		h.logger.Error("ошибка при маршализации события сброса", zap.Error(err))
		return
	}
	h.publish(sessionID, data)
}
