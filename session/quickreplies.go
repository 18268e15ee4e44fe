package session

// Слоты, которые бот может запрашивать у пользователя.
const (
	ExpectingDate = "date"
	ExpectingTime = "time"
)

// Наборы быстрых ответов для текущего состояния диалога.
var (
	defaultReplies = []string{
		"Book a car service",
		"Mall delivery",
		"Find products near me",
		"Help with my order",
	}
	dateReplies = []string{"Today", "Tomorrow", "Next week"}
	timeReplies = []string{"10 AM", "2 PM", "5 PM"}
	humanReplies = []string{
		"Ok, I'll wait",
		"Thank you",
		"That's all for now",
	}
)

// DefaultQuickReplies возвращает стартовый набор быстрых ответов
// (используется виджетом до первого хода).
func DefaultQuickReplies() []string {
	out := make([]string, len(defaultReplies))
	copy(out, defaultReplies)
	return out
}

// computeQuickReplies выбирает активный набор быстрых ответов.
// Режим живого оператора имеет приоритет над запрашиваемым слотом.
func computeQuickReplies(sl Slots) []string {
	switch {
	case sl.HumanOperator:
		return humanReplies
	case sl.Expecting == ExpectingDate:
		return dateReplies
	case sl.Expecting == ExpectingTime:
		return timeReplies
	default:
		return defaultReplies
	}
}
