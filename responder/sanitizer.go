package responder

import "strings"

// forbiddenTerms — слова/фразы, при которых диалог эскалируется
// на живого оператора вместо показа текста.
var forbiddenTerms = []string{
	// RU + EN варианты
	"бот", "robot", "робот",
	"нейросеть", "neural network",
	"language model", "llm",
	"gpt", "chatgpt", "openai",
	"искусственный интеллект", "artificial intelligence",
	"виртуальный ассистент", "digital agent",
	"i am an ai", "as an ai",
}

// sanitize проверяет текст ответчика. escalate=true => нужен живой оператор.
func sanitize(resp string) (clean string, escalate bool) {
	lower := strings.ToLower(resp)
	for _, term := range forbiddenTerms {
		if strings.Contains(lower, term) {
			return "", true
		}
	}
	return strings.TrimSpace(resp), false
}
