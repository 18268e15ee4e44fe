package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/assistchat/models"
)

// fakeResponder — управляемый ответчик для тестов ядра.
type fakeResponder struct {
	mu      sync.Mutex
	calls   int
	lastReq *models.ResponderRequest
	respond func(req *models.ResponderRequest) (*models.ResponderResponse, error)
}

func (f *fakeResponder) Respond(_ context.Context, req *models.ResponderRequest) (*models.ResponderResponse, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	fn := f.respond
	f.mu.Unlock()
	if fn == nil {
		return &models.ResponderResponse{Response: "ok"}, nil
	}
	return fn(req)
}

func (f *fakeResponder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeResponder) lastRequest() *models.ResponderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func newTestSession(fr *fakeResponder) *Session {
	s := New("test-session", fr, nil, nil)
	s.SetEffectDelay(time.Millisecond)
	return s
}

func botTexts(msgs []models.Message) []string {
	var out []string
	for _, m := range msgs {
		if m.Role == models.RoleBot {
			out = append(out, m.Text)
		}
	}
	return out
}

func TestNewSessionStartsWithGreeting(t *testing.T) {
	s := newTestSession(&fakeResponder{})

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleBot, msgs[0].Role)
	assert.Equal(t, GreetingText, msgs[0].Text)
	assert.Equal(t, defaultReplies, s.QuickReplies())
	assert.False(t, s.Loading())
}

// Сценарий из продуктового брифа: проблема с тормозами -> дата -> время.
func TestBookingScenario(t *testing.T) {
	fr := &fakeResponder{}
	s := newTestSession(fr)

	// Ход 1: услуга предложена, бот запрашивает дату.
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{
			Response:  "Here are nearby services...",
			Services:  []string{"ServiceA"},
			Expecting: "date",
		}, nil
	}
	res, err := s.Submit(context.Background(), Input{Text: "I have a brake problem"})
	require.NoError(t, err)

	assert.Equal(t, "ServiceA", res.Slots.SelectedService)
	assert.Equal(t, "date", res.Slots.Expecting)
	assert.Equal(t, "brake problem", res.Slots.Issue)
	assert.Equal(t, []string{"Today", "Tomorrow", "Next week"}, res.QuickReplies)

	// Ход 2: дата установлена, sticky-поля не тронуты.
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		// Контекст предыдущего хода уходит ответчику.
		assert.Equal(t, "date", req.ConversationState.Expecting)
		assert.Equal(t, "ServiceA", req.ConversationState.SelectedService)
		return &models.ResponderResponse{
			Response:  "What hour?",
			Expecting: "time",
			Date:      "tomorrow",
		}, nil
	}
	res, err = s.Submit(context.Background(), Input{Text: "tomorrow"})
	require.NoError(t, err)

	assert.Equal(t, "ServiceA", res.Slots.SelectedService)
	assert.Equal(t, "brake problem", res.Slots.Issue)
	assert.Equal(t, "tomorrow", res.Slots.Date)
	assert.Equal(t, "time", res.Slots.Expecting)
	assert.Equal(t, timeReplies, res.QuickReplies)

	// Ход 3: запись подтверждена, за основным ответом идёт
	// синтетическое подтверждение календаря.
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{
			Response: "Booked!",
			Action:   models.ActionCalendarAdd,
			Time:     "10 AM",
		}, nil
	}
	res, err = s.Submit(context.Background(), Input{Text: "10 AM"})
	require.NoError(t, err)
	assert.Equal(t, "Booked!", res.Reply)
	assert.True(t, res.Slots.CalendarConfirmed)

	require.Eventually(t, func() bool {
		return len(s.Messages()) == 1+6+1 // приветствие + 3 хода по 2 + подтверждение
	}, time.Second, 5*time.Millisecond)

	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	prev := msgs[len(msgs)-2]
	assert.Equal(t, "Booked!", prev.Text)
	assert.Contains(t, last.Text, "tomorrow")
	assert.Contains(t, last.Text, "10 AM")
	assert.Contains(t, last.Text, "email confirmation")
}

func TestStickyFieldsSurviveAbsentValues(t *testing.T) {
	fr := &fakeResponder{}
	s := newTestSession(fr)

	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{
			Response:  "ok",
			Services:  []string{"ServiceA"},
			Date:      "tomorrow",
			Time:      "10 AM",
			Expecting: "time",
		}, nil
	}
	_, err := s.Submit(context.Background(), Input{Text: "book a brake service"})
	require.NoError(t, err)

	// Ответ без единого поля состояния ничего не затирает.
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{Response: "anything else?"}, nil
	}
	res, err := s.Submit(context.Background(), Input{Text: "thanks"})
	require.NoError(t, err)

	assert.Equal(t, "ServiceA", res.Slots.SelectedService)
	assert.Equal(t, "tomorrow", res.Slots.Date)
	assert.Equal(t, "10 AM", res.Slots.Time)
	assert.Equal(t, "brake problem", res.Slots.Issue)
	assert.Equal(t, "time", res.Slots.Expecting)
}

func TestSelectedServiceStickyOnceSet(t *testing.T) {
	fr := &fakeResponder{}
	s := newTestSession(fr)

	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{Response: "ok", Services: []string{"ServiceA"}}, nil
	}
	_, err := s.Submit(context.Background(), Input{Text: "hello"})
	require.NoError(t, err)

	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{Response: "ok", Services: []string{"ServiceB"}}, nil
	}
	res, err := s.Submit(context.Background(), Input{Text: "more"})
	require.NoError(t, err)

	assert.Equal(t, "ServiceA", res.Slots.SelectedService)
}

func TestEmptySubmitIsNoOp(t *testing.T) {
	fr := &fakeResponder{}
	s := newTestSession(fr)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), Input{Text: text})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Len(t, s.Messages(), 1)
	assert.Equal(t, 0, fr.callCount())
	assert.False(t, s.Loading())
}

func TestAtMostOneTurnInFlight(t *testing.T) {
	block := make(chan struct{})
	fr := &fakeResponder{}
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		<-block
		return &models.ResponderResponse{Response: "ok"}, nil
	}
	s := newTestSession(fr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.Submit(context.Background(), Input{Text: "first"})
		assert.NoError(t, err)
	}()

	require.Eventually(t, s.Loading, time.Second, time.Millisecond)
	before := len(s.Messages())

	// Повторная отправка во время выполняющегося хода отклоняется:
	// журнал не растёт, сетевого вызова нет.
	_, err := s.Submit(context.Background(), Input{Text: "second"})
	assert.ErrorIs(t, err, ErrTurnInFlight)
	assert.Len(t, s.Messages(), before)

	close(block)
	<-done
	assert.Equal(t, 1, fr.callCount())
}

func TestResponderFailureAppendsFallbackOnly(t *testing.T) {
	fr := &fakeResponder{}
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return nil, errors.New("connection refused")
	}
	s := newTestSession(fr)

	res, err := s.Submit(context.Background(), Input{Text: "book a brake service"})
	require.NoError(t, err)
	assert.Equal(t, FallbackText, res.Reply)

	msgs := s.Messages()
	require.Len(t, msgs, 3) // приветствие + пользователь + извинение
	assert.Equal(t, FallbackText, msgs[2].Text)

	// Слоты при ошибке не меняются вовсе, даже Issue.
	assert.Equal(t, Slots{}, s.Slots())
	assert.False(t, s.Loading())

	// Сессия остаётся рабочей для следующей отправки.
	fr.respond = nil
	_, err = s.Submit(context.Background(), Input{Text: "retry"})
	require.NoError(t, err)
}

func TestMissingResponseRendersPlaceholder(t *testing.T) {
	fr := &fakeResponder{}
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{Expecting: "date"}, nil
	}
	s := newTestSession(fr)

	res, err := s.Submit(context.Background(), Input{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, placeholderText, res.Reply)
	// Ход при этом не падает: слияние слотов выполняется.
	assert.Equal(t, "date", res.Slots.Expecting)
}

func TestResetAtomicity(t *testing.T) {
	fr := &fakeResponder{}
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{
			Response:      "ok",
			Services:      []string{"ServiceA"},
			Date:          "tomorrow",
			Expecting:     "time",
			RequiresHuman: true,
		}, nil
	}
	s := newTestSession(fr)

	_, err := s.Submit(context.Background(), Input{Text: "brake problem"})
	require.NoError(t, err)
	require.True(t, s.Slots().HumanOperator)

	s.Reset()

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, GreetingText, msgs[0].Text)
	assert.Equal(t, Slots{}, s.Slots())
	assert.Equal(t, defaultReplies, s.QuickReplies())
	assert.False(t, s.Loading())
}

func TestStaleResponseDiscardedAfterReset(t *testing.T) {
	block := make(chan struct{})
	fr := &fakeResponder{}
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		<-block
		return &models.ResponderResponse{Response: "late", Date: "tomorrow"}, nil
	}
	s := newTestSession(fr)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), Input{Text: "first"})
		errCh <- err
	}()

	require.Eventually(t, s.Loading, time.Second, time.Millisecond)
	s.Reset()
	close(block)

	assert.ErrorIs(t, <-errCh, ErrSessionReset)

	// Устаревший ответ не попал ни в журнал, ни в слоты.
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, GreetingText, msgs[0].Text)
	assert.Equal(t, Slots{}, s.Slots())
}

func TestDelayedEffectSuppressedByReset(t *testing.T) {
	fr := &fakeResponder{}
	fr.respond = func(req *models.ResponderRequest) (*models.ResponderResponse, error) {
		return &models.ResponderResponse{
			Response: "Booked!",
			Action:   models.ActionCalendarAdd,
			Date:     "tomorrow",
			Time:     "10 AM",
		}, nil
	}
	s := newTestSession(fr)
	s.SetEffectDelay(50 * time.Millisecond)

	_, err := s.Submit(context.Background(), Input{Text: "book it"})
	require.NoError(t, err)

	// Сброс внутри окна задержки подавляет отложенное подтверждение.
	s.Reset()
	time.Sleep(120 * time.Millisecond)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, GreetingText, msgs[0].Text)
}

func TestLocationSentOnlyForLocationIntent(t *testing.T) {
	fr := &fakeResponder{}
	s := newTestSession(fr)
	coords := &models.Coordinates{Latitude: 46.77, Longitude: 23.59}

	_, err := s.Submit(context.Background(), Input{Text: "hello there", Location: coords})
	require.NoError(t, err)
	assert.Nil(t, fr.lastRequest().Location)

	_, err = s.Submit(context.Background(), Input{Text: "auto service near me", Location: coords})
	require.NoError(t, err)
	require.NotNil(t, fr.lastRequest().Location)
	assert.Equal(t, coords.Latitude, fr.lastRequest().Location.Latitude)
}

func TestLanguageDefaultsToEnglish(t *testing.T) {
	fr := &fakeResponder{}
	s := newTestSession(fr)

	_, err := s.Submit(context.Background(), Input{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "en", fr.lastRequest().Language)

	_, err = s.Submit(context.Background(), Input{Text: "salut", Language: "ro"})
	require.NoError(t, err)
	assert.Equal(t, "ro", fr.lastRequest().Language)
}
