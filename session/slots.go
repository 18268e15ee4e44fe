package session

import (
	"strings"

	"github.com/egor/assistchat/models"
)

// Slots представляет собой накопленное состояние многоходового диалога.
// Правило слияния: поле меняется только если новый ответ сервера несёт
// непустое значение. Отсутствующее поле никогда не затирает накопленное.
type Slots struct {
	Expecting       string // какой слот бот сейчас запрашивает ("date", "time", ...)
	SelectedService string // первая услуга, предложенная ответчиком; после установки не меняется
	Date            string
	Time            string
	Issue           string // определяется локально по ключевым словам
	HumanOperator   bool   // односторонний флаг; сбрасывается только явным Reset

	CalendarConfirmed bool
	calendarKey       string // пара (date, time), для которой уже отправлено подтверждение
}

// merge вливает ответ сервера в хранилище слотов.
// userText — последнее сообщение пользователя, по нему определяется Issue.
func (sl *Slots) merge(userText string, resp *models.ResponderResponse) {
	if resp.Expecting != "" {
		sl.Expecting = resp.Expecting
	}
	if resp.Date != "" {
		sl.Date = resp.Date
	}
	if resp.Time != "" {
		sl.Time = resp.Time
	}
	if len(resp.Services) > 0 && sl.SelectedService == "" {
		sl.SelectedService = resp.Services[0]
	}
	if issue := detectIssue(userText); issue != "" {
		sl.Issue = issue
	}
}

// carryForward возвращает контекст для исходящего запроса к ответчику.
func (sl *Slots) carryForward() models.ConversationState {
	return models.ConversationState{
		Expecting:       sl.Expecting,
		Date:            sl.Date,
		Time:            sl.Time,
		SelectedService: sl.SelectedService,
	}
}

// calendarPairConfirmed сообщает, отправлялось ли уже подтверждение
// для точной пары (date, time).
func (sl *Slots) calendarPairConfirmed() bool {
	return sl.CalendarConfirmed && sl.calendarKey == sl.Date+"|"+sl.Time
}

// confirmCalendar помечает текущую пару (date, time) подтверждённой.
func (sl *Slots) confirmCalendar() {
	sl.CalendarConfirmed = true
	sl.calendarKey = sl.Date + "|" + sl.Time
}

// issueKeywords — локальный словарь проблем клиента. Первое совпадение
// по подстроке даёт каноническое название проблемы.
var issueKeywords = []struct {
	keyword string
	issue   string
}{
	{"brake", "brake problem"},
	{"engine", "engine problem"},
	{"battery", "battery problem"},
	{"transmission", "transmission problem"},
	{"tire", "tire service"},
	{"oil", "oil change"},
	{"inspection", "technical inspection"},
	{"delivery", "delivery request"},
}

// detectIssue ищет известную проблему в тексте пользователя.
// Пустая строка — совпадений нет, слот остаётся прежним.
func detectIssue(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range issueKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.issue
		}
	}
	return ""
}

// locationHints — подстроки, по которым определяется запрос с геопривязкой.
// Только для таких запросов во внешний вызов уходят координаты.
var locationHints = []string{
	"near me",
	"nearby",
	"location",
	"closest",
	"around me",
	"mall delivery",
	"auto service",
	"car service",
}

// wantsLocation проверяет, похож ли текст на запрос, зависящий от геопозиции.
func wantsLocation(text string) bool {
	lower := strings.ToLower(text)
	for _, hint := range locationHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
