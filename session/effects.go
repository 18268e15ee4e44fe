package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
)

// Текст объявления о переводе на живого оператора.
const handoffText = "I'm connecting you with a human operator now. Please stay in the chat, a colleague will be with you shortly."

// calendarText формирует подтверждение записи в календарь.
func calendarText(date, timeOfDay string) string {
	return fmt.Sprintf(
		"Your appointment on %s at %s has been added to the calendar. An email confirmation is on its way to you.",
		date, timeOfDay,
	)
}

// dispatchEffectsLocked переводит пару (старые слоты, сигнал сервера)
// в одноразовые действия. Правила проверяются в фиксированном порядке;
// невыполненное условие просто пропускает правило, ход не падает.
// Вызывается только под мьютексом, после успешного слияния слотов.
func (s *Session) dispatchEffectsLocked(prev Slots, resp *models.ResponderResponse, epoch int) {
	var pending []string

	// Правило 1: подтверждение календаря — не более одного раза
	// на точную пару (date, time).
	if resp.Action == models.ActionCalendarAdd &&
		s.slots.Date != "" && s.slots.Time != "" &&
		!s.slots.calendarPairConfirmed() {
		s.slots.confirmCalendar()
		pending = append(pending, calendarText(s.slots.Date, s.slots.Time))
		s.logger.Info("запись в календарь подтверждена",
			zap.String("sessionId", s.ID),
			zap.String("date", s.slots.Date),
			zap.String("time", s.slots.Time))
	}

	// Правило 2: односторонний перевод на живого оператора.
	// Объявление всегда идёт после календарного подтверждения.
	if resp.HandoffRequired() && !prev.HumanOperator {
		s.slots.HumanOperator = true
		pending = append(pending, handoffText)
		s.logger.Info("диалог переведён на живого оператора",
			zap.String("sessionId", s.ID))
	}

	// Правило 3: пересчёт набора быстрых ответов.
	s.quickReplies = computeQuickReplies(s.slots)

	if len(pending) > 0 {
		s.scheduleSynthetic(pending, epoch, s.effectDelay)
	}
}

// scheduleSynthetic добавляет синтетические сообщения бота по одному,
// с паузой перед каждым. Цепочка таймеров гарантирует порядок:
// основной ответ -> календарь -> перевод на оператора. Сообщение
// с устаревшей эпохой не добавляется: сессию успели сбросить.
func (s *Session) scheduleSynthetic(texts []string, epoch int, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		s.appendLocked(models.NewMessage(models.RoleBot, texts[0]))
		s.mu.Unlock()

		if len(texts) > 1 {
			s.scheduleSynthetic(texts[1:], epoch, delay)
		}
	})
}
