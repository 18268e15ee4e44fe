package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
)

// Тексты системных сообщений бота.
const (
	GreetingText = "Hi! How can I help you today?"
	FallbackText = "I apologize, but I'm having trouble processing your request right now. Please try again."
	// Показывается, когда ответчик вернул пустое поле response.
	placeholderText = "I'm sorry, I didn't quite get that. Could you rephrase?"
)

// DefaultEffectDelay — пауза перед синтетическими сообщениями диспетчера,
// чтобы основной ответ успел отрисоваться первым.
const DefaultEffectDelay = 600 * time.Millisecond

var (
	// ErrEmptyMessage — пустой ввод после trim: ход не начинается.
	ErrEmptyMessage = errors.New("session: empty message")
	// ErrTurnInFlight — предыдущий ход ещё не завершён.
	ErrTurnInFlight = errors.New("session: turn already in flight")
	// ErrSessionReset — сессия была сброшена, пока ход был в полёте.
	ErrSessionReset = errors.New("session: reset while turn in flight")
)

// Responder — внешний генератор ответов (LLM/RAG бэкенд).
// Для диалогового ядра это чёрный ящик.
type Responder interface {
	Respond(ctx context.Context, req *models.ResponderRequest) (*models.ResponderResponse, error)
}

// Sink получает события журнала для push-доставки рендерерам
// (веб, виджет, мобильный клиент). Реализации не должны блокировать.
type Sink interface {
	MessageAppended(sessionID string, msg models.Message)
	SessionReset(sessionID string)
}

// Input — один пользовательский ввод: текст, быстрый ответ
// (уже развёрнутый в текст) или расшифрованная голосовая запись.
type Input struct {
	Text     string
	Language string
	Voice    bool
	Location *models.Coordinates
}

// Result — итог успешно завершённого хода.
type Result struct {
	Reply        string
	Products     []models.Product
	Slots        Slots
	QuickReplies []string
}

// Session представляет собой одну диалоговую сессию: журнал сообщений,
// хранилище слотов и флаг выполняющегося хода. Мьютекс защищает память,
// флаг loading — контракт "не более одного хода одновременно".
type Session struct {
	ID     string
	UserID string

	mu           sync.Mutex
	log          []models.Message
	slots        Slots
	loading      bool
	epoch        int // растёт при каждом Reset; устаревшие ответы и эффекты отбрасываются
	quickReplies []string

	responder   Responder
	sink        Sink
	logger      *zap.Logger
	effectDelay time.Duration
}

// New создает сессию с приветственным сообщением в журнале.
func New(id string, responder Responder, sink Sink, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		ID:           id,
		responder:    responder,
		sink:         sink,
		logger:       logger,
		effectDelay:  DefaultEffectDelay,
		quickReplies: defaultReplies,
	}
	s.log = []models.Message{models.NewMessage(models.RoleBot, GreetingText)}
	return s
}

// SetEffectDelay меняет паузу перед синтетическими сообщениями.
func (s *Session) SetEffectDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effectDelay = d
}

// Submit выполняет ровно один цикл запрос/ответ.
// Сетевой вызов идёт без удержания мьютекса; на время вызова поднят
// флаг loading, и повторные отправки отклоняются.
func (s *Session) Submit(ctx context.Context, in Input) (*Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.loading = true
	epoch := s.epoch

	// Оптимистично показываем сообщение пользователя до сетевого вызова.
	s.appendLocked(models.NewMessage(models.RoleUser, text))

	req := s.buildRequestLocked(text, in)
	s.mu.Unlock()

	resp, err := s.responder.Respond(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		// Сессия сброшена, пока ход был в полёте: ответ отбрасывается,
		// слоты не трогаем. Флаг loading уже снят самим Reset.
		s.logger.Info("устаревший ответ отброшен после сброса сессии",
			zap.String("sessionId", s.ID))
		return nil, ErrSessionReset
	}
	s.loading = false

	if err != nil {
		// Ошибка терминальна для хода: одно сообщение-извинение,
		// никаких изменений слотов, пользователь отправляет заново.
		s.logger.Warn("ошибка внешнего ответчика",
			zap.String("sessionId", s.ID), zap.Error(err))
		s.appendLocked(models.NewMessage(models.RoleBot, FallbackText))
		return &Result{
			Reply:        FallbackText,
			Slots:        s.slots,
			QuickReplies: s.quickReplies,
		}, nil
	}

	prev := s.slots
	s.slots.merge(text, resp)

	replyText := strings.TrimSpace(resp.Response)
	if replyText == "" {
		replyText = placeholderText
	}
	s.appendLocked(models.NewBotMessage(replyText, resp.Products))

	s.dispatchEffectsLocked(prev, resp, epoch)

	return &Result{
		Reply:        replyText,
		Products:     resp.Products,
		Slots:        s.slots,
		QuickReplies: s.quickReplies,
	}, nil
}

// buildRequestLocked собирает исходящий запрос к ответчику.
// Координаты уходят только для запросов с геопривязкой.
func (s *Session) buildRequestLocked(text string, in Input) *models.ResponderRequest {
	language := in.Language
	if language == "" {
		language = "en"
	}

	var location *models.Coordinates
	if in.Location != nil && wantsLocation(text) {
		location = in.Location
	}

	return &models.ResponderRequest{
		Message:           text,
		Language:          language,
		VoiceInput:        in.Voice,
		Location:          location,
		ConversationState: s.slots.carryForward(),
	}
}

// Reset атомарно возвращает сессию в исходное состояние: журнал из одного
// приветствия, пустые слоты, дефолтные быстрые ответы. Эпоха растёт,
// поэтому отложенные сообщения и ответы в полёте будут отброшены.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.loading = false
	s.slots = Slots{}
	s.quickReplies = defaultReplies
	s.log = []models.Message{models.NewMessage(models.RoleBot, GreetingText)}

	if s.sink != nil {
		s.sink.SessionReset(s.ID)
	}
}

// Messages возвращает копию журнала в порядке добавления.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.log))
	copy(out, s.log)
	return out
}

// Slots возвращает снимок хранилища слотов.
func (s *Session) Slots() Slots {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots
}

// QuickReplies возвращает активный набор быстрых ответов.
func (s *Session) QuickReplies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.quickReplies))
	copy(out, s.quickReplies)
	return out
}

// Loading сообщает, выполняется ли сейчас ход.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// appendLocked добавляет сообщение в журнал и уведомляет рендереры.
// Вызывается только под мьютексом.
func (s *Session) appendLocked(msg models.Message) {
	s.log = append(s.log, msg)
	if s.sink != nil {
		s.sink.MessageAppended(s.ID, msg)
	}
}
