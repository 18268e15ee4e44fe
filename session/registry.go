package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Срок жизни неактивной сессии и период уборки.
const (
	defaultSessionTTL      = 30 * time.Minute
	defaultCleanupInterval = 10 * time.Minute
)

// Registry хранит активные сессии в памяти с TTL по неактивности.
// Сессии полностью независимы: общих изменяемых данных между ними нет,
// реестр — единственная разделяемая структура.
type Registry struct {
	// mu сериализует пары lookup+insert: без него два одновременных
	// первых запроса с одним ID создали бы две разные сессии.
	mu          sync.Mutex
	store       *cache.Cache
	responder   Responder
	sink        Sink
	logger      *zap.Logger
	effectDelay time.Duration
}

// NewRegistry создает реестр сессий.
func NewRegistry(responder Responder, sink Sink, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:       cache.New(defaultSessionTTL, defaultCleanupInterval),
		responder:   responder,
		sink:        sink,
		logger:      logger,
		effectDelay: DefaultEffectDelay,
	}
}

// SetEffectDelay задаёт паузу синтетических сообщений для новых сессий.
func (r *Registry) SetEffectDelay(d time.Duration) {
	r.effectDelay = d
}

// GetOrCreate возвращает сессию по идентификатору, создавая её при
// необходимости. Пустой идентификатор означает новую сессию.
// Обращение продлевает срок жизни.
func (r *Registry) GetOrCreate(id, userID string) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.store.Get(id); found {
		s := v.(*Session)
		r.store.Set(id, s, cache.DefaultExpiration)
		return s
	}

	s := New(id, r.responder, r.sink, r.logger)
	s.UserID = userID
	s.SetEffectDelay(r.effectDelay)
	r.store.Set(id, s, cache.DefaultExpiration)
	r.logger.Info("создана новая сессия",
		zap.String("sessionId", id), zap.String("userId", userID))
	return s
}

// Get возвращает существующую сессию без создания новой.
func (r *Registry) Get(id string) (*Session, bool) {
	v, found := r.store.Get(id)
	if !found {
		return nil, false
	}
	return v.(*Session), true
}

// Count возвращает число активных сессий.
func (r *Registry) Count() int {
	return r.store.ItemCount()
}
