package models

// Сигналы action от внешнего ответчика.
const (
	ActionCalendarAdd  = "calendar_add"
	ActionHumanHandoff = "human_handoff"
)

// ConversationState — накопленное состояние диалога, отправляемое ответчику
// как контекст. Зеркало sticky-полей хранилища слотов.
type ConversationState struct {
	Expecting       string `json:"expecting,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	SelectedService string `json:"selected_service,omitempty"`
}

// ResponderRequest описывает тело POST-запроса к внешнему ответчику.
type ResponderRequest struct {
	Message           string            `json:"message"`
	Language          string            `json:"language"`
	VoiceInput        bool              `json:"voice_input"`
	Location          *Coordinates      `json:"location"`
	ConversationState ConversationState `json:"conversation_state"`
}

// ResponderResponse описывает ответ внешнего ответчика.
// Все поля, кроме Response, опциональны: отсутствующее поле никогда
// не затирает ранее накопленное значение слота.
type ResponderResponse struct {
	Response      string    `json:"response"`
	Action        string    `json:"action,omitempty"`
	Expecting     string    `json:"expecting,omitempty"`
	Services      []string  `json:"services,omitempty"`
	Date          string    `json:"date,omitempty"`
	Time          string    `json:"time,omitempty"`
	RequiresHuman bool      `json:"requires_human,omitempty"`
	Products      []Product `json:"products,omitempty"`
}

// HandoffRequired сообщает, требует ли ответ перевода на живого оператора.
func (r *ResponderResponse) HandoffRequired() bool {
	return r.RequiresHuman || r.Action == ActionHumanHandoff
}
