// Package anthropic реализует адаптер llm.Provider для Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// Client реализует llm.Provider поверх go-anthropic.
type Client struct {
	api         *anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	policy      *llm.CallPolicy
}

var _ llm.Provider = (*Client)(nil)

// NewClient создает клиент на основе конфигурации модели.
func NewClient(modelDef config.ModelDef) *Client {
	var opts []anthropic.ClientOption
	if modelDef.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(modelDef.BaseURL))
	}

	maxTokens := modelDef.MaxTokens
	if maxTokens <= 0 {
		// Messages API требует max_tokens
		maxTokens = 4000
	}

	return &Client{
		api:         anthropic.NewClient(modelDef.APIKey, opts...),
		model:       modelDef.ModelName,
		maxTokens:   maxTokens,
		temperature: modelDef.Temperature,
		timeout:     modelDef.Timeout,
		policy:      llm.NewCallPolicy(modelDef.RateLimit, modelDef.BurstLimit, modelDef.RetryAttempts),
	}
}

// Chat отправляет запрос в Messages API.
//
// Системные сообщения собираются в поле system, остальные идут по порядку.
// req.Model игнорируется так же, как в openai адаптере.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	startTime := time.Now()
	apiReq := c.buildRequest(req)

	utils.Debug("LLM request started",
		"provider", "anthropic",
		"model", c.model,
		"messages_count", len(apiReq.Messages))

	var content string
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		resp, err := c.api.CreateMessages(ctx, apiReq)
		if err != nil {
			return classify(err)
		}
		content = resp.GetFirstContentText()
		return nil
	})
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", c.model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	utils.Info("LLM response received",
		"model", c.model,
		"content_length", len(content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return content, nil
}

func (c *Client) buildRequest(req llm.ChatRequest) anthropic.MessagesRequest {
	var (
		system []string
		msgs   []anthropic.Message
	)
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantTextMessage(m.Content))
		default:
			msgs = append(msgs, anthropic.NewUserTextMessage(m.Content))
		}
	}

	apiReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  msgs,
		System:    strings.Join(system, "\n\n"),
		MaxTokens: c.maxTokens,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}

	temperature := c.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		t := float32(temperature)
		apiReq.Temperature = &t
	}
	return apiReq
}

// classify помечает rate limit, перегрузку и 5xx как временные ошибки.
func classify(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		switch string(apiErr.Type) {
		case "rate_limit_error", "overloaded_error", "api_error":
			return &llm.RetryableError{Err: err}
		}
		return err
	}

	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.StatusCode == http.StatusTooManyRequests || reqErr.StatusCode >= http.StatusInternalServerError {
			return &llm.RetryableError{Err: err}
		}
	}
	return err
}
