package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APISource - каталог шаблонов за HTTP API.
//
// Поддерживает Bearer token авторизацию.
//
// API контракт:
//
//	GET  /templates   → 200 [TemplateData...] | 404
//	PUT  /templates   ← [TemplateData...]
//	GET  /active-id   → 200 {"activeId": "..."} | 404
//	PUT  /active-id   ← {"activeId": "..."}
type APISource struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewAPISource создаёт источник шаблонов из HTTP API.
func NewAPISource(endpoint string, token string) *APISource {
	return &APISource{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

var _ Source = (*APISource)(nil)

// SetClient устанавливает кастомный HTTP клиент (для тестирования).
func (s *APISource) SetClient(client *http.Client) {
	s.client = client
}

type activeIDBody struct {
	ActiveID string `json:"activeId"`
}

func (s *APISource) Load(ctx context.Context) ([]TemplateData, error) {
	var templates []TemplateData
	if err := s.do(ctx, http.MethodGet, "/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *APISource) Save(ctx context.Context, templates []TemplateData) error {
	if templates == nil {
		templates = []TemplateData{}
	}
	return s.do(ctx, http.MethodPut, "/templates", templates, nil)
}

func (s *APISource) LoadActiveID(ctx context.Context) (string, error) {
	var body activeIDBody
	if err := s.do(ctx, http.MethodGet, "/active-id", nil, &body); err != nil {
		return "", err
	}
	if body.ActiveID == "" {
		return "", ErrNotFound
	}
	return body.ActiveID, nil
}

func (s *APISource) SaveActiveID(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodPut, "/active-id", activeIDBody{ActiveID: id}, nil)
}

func (s *APISource) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned error %d: %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}
