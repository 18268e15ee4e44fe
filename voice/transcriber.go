// Package voice — граница захвата голоса: принять запись, переслать
// во внешний сервис расшифровки, вернуть текст. Дальше текст идёт
// обычным путём через диалоговое ядро.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// MinAudioBytes — порог почти тихой записи. Всё, что меньше,
// считается пустым вводом и до диалогового ядра не доходит.
const MinAudioBytes = 1024

// Transcriber представляет клиента внешнего API расшифровки аудио.
type Transcriber struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
	logger *zap.Logger
}

// NewTranscriber создаёт нового клиента расшифровки.
func NewTranscriber(apiURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Transcriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if model == "" {
		model = "whisper-1"
	}
	return &Transcriber{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// transcriptionResponse — ответ API расшифровки.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// TooQuiet проверяет, не является ли запись почти тихой.
func TooQuiet(size int64) bool {
	return size < MinAudioBytes
}

// Transcribe отправляет аудио multipart-запросом и возвращает текст.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader, language string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, &body)
	if err != nil {
		return "", fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	t.logger.Info("аудио расшифровано", zap.Int("chars", len(out.Text)))
	return out.Text, nil
}
