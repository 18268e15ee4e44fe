package models

// Coordinates — географические координаты пользователя.
// Передаются ответчику только когда текст похож на запрос "рядом со мной".
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ChatRequest представляет собой входящее сообщение от фронтенда
// (веб-приложение, виджет или мобильный клиент).
type ChatRequest struct {
	SessionID string       `json:"session_id"`
	UserID    string       `json:"user_id"` // непрозрачный корреляционный токен
	// Пустое сообщение — тихий no-op, поэтому без binding:"required".
	Message   string       `json:"message"`
	Language  string       `json:"language"`
	Location  *Coordinates `json:"location,omitempty"`
}

// ChatResponse представляет собой ответ фронтенду после завершения хода.
type ChatResponse struct {
	SessionID       string    `json:"session_id"`
	Response        string    `json:"response"`
	Expecting       string    `json:"expecting,omitempty"`
	Date            string    `json:"date,omitempty"`
	Time            string    `json:"time,omitempty"`
	SelectedService string    `json:"selected_service,omitempty"`
	Issue           string    `json:"issue,omitempty"`
	HumanOperator   bool      `json:"human_operator"`
	QuickReplies    []string  `json:"quick_replies"`
	Products        []Product `json:"products,omitempty"`
	Transcription   string    `json:"transcription,omitempty"` // только для голосового входа
}
