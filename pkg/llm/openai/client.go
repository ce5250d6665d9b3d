// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API
// (OpenAI, OpenRouter, DeepSeek и т.д. через base_url).
//
// Работает только через интерфейс llm.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	policy      *llm.CallPolicy
}

var _ llm.Provider = (*Client)(nil)

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// Все настройки из конфигурации, никакого хардкода.
func NewClient(modelDef config.ModelDef) *Client {
	// Поддержка custom BaseURL для non-OpenAI провайдеров
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       modelDef.ModelName,
		maxTokens:   modelDef.MaxTokens,
		temperature: modelDef.Temperature,
		timeout:     modelDef.Timeout,
		policy:      llm.NewCallPolicy(modelDef.RateLimit, modelDef.BurstLimit, modelDef.RetryAttempts),
	}
}

// Chat выполняет запрос к API и возвращает текст ответа.
//
// req.Model игнорируется: клиент всегда обращается к своей модели
// (выбор модели по алиасу делает models.Registry). Нулевые Temperature/MaxTokens
// заменяются значениями из конфигурации.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	startTime := time.Now()

	apiReq := c.buildRequest(req)

	utils.Debug("LLM request started",
		"provider", "openai",
		"model", c.model,
		"messages_count", len(req.Messages))

	var content string
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		resp, err := c.api.CreateChatCompletion(ctx, apiReq)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", c.model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return "", fmt.Errorf("openai api error: %w", err)
	}

	utils.Info("LLM response received",
		"model", c.model,
		"content_length", len(content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return content, nil
}

func (c *Client) buildRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		apiReq.Temperature = float32(req.Temperature)
	}
	if req.Format == "json_object" {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return apiReq
}

// classify помечает 429 и 5xx как временные ошибки.
func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &llm.RetryableError{Err: err}
	}
	return err
}
