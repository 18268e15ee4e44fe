// Package responder — клиент внешнего LLM/RAG бэкенда, который порождает
// ответы диалога. Для остального кода это непрозрачный чёрный ящик.
package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
)

// Client представляет клиента для взаимодействия с внешним ответчиком.
type Client struct {
	apiURL string
	client *http.Client
	logger *zap.Logger
}

// NewClient создаёт нового клиента ответчика.
func NewClient(apiURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Respond отправляет сообщение и контекст диалога ответчику и возвращает
// разобранный ответ. Любая ошибка транспорта, не-2xx статус или битый JSON
// возвращаются как ошибка: слой сессии превратит их в сообщение-извинение.
func (c *Client) Respond(ctx context.Context, reqBody *models.ResponderRequest) (*models.ResponderResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat", c.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("responder API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("responder API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out models.ResponderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Фильтр текста: утечка "природы ассистента" превращается
	// в эскалацию на живого оператора.
	if clean, escalate := sanitize(out.Response); escalate {
		c.logger.Warn("ответ ответчика отфильтрован, требуется оператор",
			zap.String("action", out.Action))
		out.Response = ""
		out.RequiresHuman = true
	} else {
		out.Response = clean
	}

	return &out, nil
}
