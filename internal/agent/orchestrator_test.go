package agent

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rainytroy/May-Quote-sub001/pkg/debug"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
	"github.com/Rainytroy/May-Quote-sub001/pkg/metrics"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
	"github.com/Rainytroy/May-Quote-sub001/pkg/structured"
)

const validSingle = `Here it is: {"adminInputs": {"inputB1": "topic <def>AI</def>"}, "promptBlocks": {"promptBlock1": "Write about {#inputB1}"}}`

// MockLLMProvider - мок LLM провайдера для тестирования.
type MockLLMProvider struct {
	// Responses - последовательность ответов для возврата
	Responses []string
	// Err - ошибка, возвращаемая вместо ответа
	Err error
	// Requests - все полученные запросы
	Requests []llm.ChatRequest
	// OnChat вызывается внутри Chat до возврата ответа
	OnChat func()
}

func (m *MockLLMProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.OnChat != nil {
		m.OnChat()
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Requests) > len(m.Responses) {
		return "", errors.New("unexpected call: no more responses")
	}
	return m.Responses[len(m.Requests)-1], nil
}

func (m *MockLLMProvider) lastPrompt(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.Requests)
	msgs := m.Requests[len(m.Requests)-1].Messages
	return msgs[len(msgs)-1].Content
}

type fixedModel string

func (f fixedModel) SelectedModel() string { return string(f) }

func testTemplate() prompts.TemplateSet {
	return prompts.TemplateSet{
		ID:          "t1",
		Name:        "Test",
		FirstStage:  "Build a form for: {#input}",
		SecondStage: "Prompt: {#firstStagePrompt}\nResult: {#promptResults1}\nChange: {#input}",
	}
}

func newOrchestrator(t *testing.T, provider llm.Provider, opts ...func(*Config)) *Orchestrator {
	t.Helper()
	tpl := testTemplate()
	cfg := Config{LLM: provider, Template: &tpl}
	for _, opt := range opts {
		opt(&cfg)
	}
	o, err := New(cfg)
	require.NoError(t, err)
	return o
}

func TestNewOrchestrator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid config", cfg: Config{LLM: &MockLLMProvider{}}},
		{name: "missing LLM", cfg: Config{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			_, ok := o.Template()
			assert.False(t, ok)
		})
	}
}

func TestGenerate_Valid(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{validSingle}}
	o := newOrchestrator(t, mock, func(c *Config) {
		c.Models = fixedModel("glm-4")
		c.Options = llm.NewGenerateOptions(llm.WithTemperature(0.3), llm.WithFormat("json_object"))
	})

	resp := o.Generate(context.Background(), GenerateRequest{Input: "a survey"})

	require.True(t, resp.IsValid)
	assert.Equal(t, structured.StatusValid, resp.Status)
	assert.Equal(t, 1, resp.AdminInputCount)
	assert.Equal(t, 1, resp.PromptBlockCount)
	assert.Equal(t, "Test", resp.TemplateName)
	assert.Equal(t, validSingle, resp.RawResponse)
	assert.Equal(t, "Build a form for: a survey", resp.Prompt)
	assert.Equal(t, "glm-4", resp.Model)
	assert.False(t, resp.Recovery)

	require.Len(t, mock.Requests, 1)
	assert.Equal(t, 0.3, mock.Requests[0].Temperature)
	assert.Equal(t, "json_object", mock.Requests[0].Format)
	require.Len(t, mock.Requests[0].Messages, 1)
	assert.Equal(t, llm.RoleUser, mock.Requests[0].Messages[0].Role)
	assert.Equal(t, "Build a form for: a survey", mock.lastPrompt(t))
}

func TestGenerate_SystemPrompt(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{validSingle}}
	o := newOrchestrator(t, mock, func(c *Config) { c.SystemPrompt = "You output JSON." })

	o.Generate(context.Background(), GenerateRequest{Input: "x"})

	msgs := mock.Requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.SystemMessage("You output JSON."), msgs[0])
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
}

func TestGenerate_TemplateOverride(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{"no json"}}
	o := newOrchestrator(t, mock)
	simple := prompts.BuiltinSimple()

	resp := o.Generate(context.Background(), GenerateRequest{Input: "quiz", Template: &simple})

	assert.Equal(t, simple.Name, resp.TemplateName)
	assert.Equal(t, prompts.ResolveFirstStage(simple.FirstStage, "quiz"), mock.lastPrompt(t))
	assert.False(t, resp.IsValid)
	assert.Nil(t, resp.Content)
	assert.Equal(t, structured.StatusNoStructure, resp.Status)
}

func TestGenerate_TransportFailure(t *testing.T) {
	mock := &MockLLMProvider{Err: errors.New("connection refused")}
	o := newOrchestrator(t, mock)

	resp := o.Generate(context.Background(), GenerateRequest{Input: "x"})

	assert.False(t, resp.IsValid)
	assert.Nil(t, resp.Content)
	assert.Equal(t, "Request failed: connection refused", resp.RawResponse)
	assert.Equal(t, "Test", resp.TemplateName)
	assert.Equal(t, "Build a form for: x", resp.Prompt)
	assert.False(t, o.IsProcessing())
}

func TestGenerate_NoTemplate(t *testing.T) {
	mock := &MockLLMProvider{}
	o, err := New(Config{LLM: mock})
	require.NoError(t, err)

	resp := o.Generate(context.Background(), GenerateRequest{Input: "x"})

	assert.False(t, resp.IsValid)
	assert.Nil(t, resp.Content)
	assert.Equal(t, UnknownTemplateName, resp.TemplateName)
	assert.Contains(t, resp.RawResponse, "Request failed: ")
	assert.Empty(t, mock.Requests)
}

func TestGenerate_TemplateSnapshot(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{validSingle, validSingle}}
	o := newOrchestrator(t, mock)

	other := prompts.BuiltinStandard()
	var processing bool
	mock.OnChat = func() {
		processing = o.IsProcessing()
		o.SetTemplate(other)
	}

	first := o.Generate(context.Background(), GenerateRequest{Input: "x"})
	assert.True(t, processing)
	assert.Equal(t, "Test", first.TemplateName)
	assert.False(t, o.IsProcessing())

	mock.OnChat = nil
	second := o.Generate(context.Background(), GenerateRequest{Input: "x"})
	assert.Equal(t, other.Name, second.TemplateName)
}

func TestGenerate_Deterministic(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{validSingle, validSingle}}
	o := newOrchestrator(t, mock)

	a := o.Generate(context.Background(), GenerateRequest{Input: "same"})
	b := o.Generate(context.Background(), GenerateRequest{Input: "same"})

	assert.Equal(t, a, b)
}

func TestEdit_SecondStage(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{validSingle}}
	o := newOrchestrator(t, mock)

	resp := o.Edit(context.Background(), EditRequest{
		Input:            "add a field {#input}",
		OriginalPrompt:   "Build a form for: a survey",
		OriginalContent:  `{"adminInputs":{}}`,
		WasOriginalValid: true,
	})

	assert.True(t, resp.IsValid)
	assert.False(t, resp.Recovery)
	assert.Equal(t,
		"Prompt: Build a form for: a survey\nResult: {\"adminInputs\":{}}\nChange: add a field {#input}",
		mock.lastPrompt(t))
}

func TestEdit_RecoveryBypassesTemplate(t *testing.T) {
	mock := &MockLLMProvider{Responses: []string{validSingle}}
	tpl := testTemplate()
	tpl.SecondStage = ""
	o := newOrchestrator(t, mock)

	resp := o.Edit(context.Background(), EditRequest{
		Input:            "make it shorter",
		OriginalPrompt:   "ignored",
		OriginalContent:  "broken {answer",
		WasOriginalValid: false,
		Template:         &tpl,
	})

	assert.True(t, resp.Recovery)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "Test", resp.TemplateName)
	assert.Equal(t, prompts.BuildRecoveryPrompt("broken {answer", "make it shorter"), mock.lastPrompt(t))
}

func TestEdit_TransportFailure(t *testing.T) {
	mock := &MockLLMProvider{Err: errors.New("timeout")}
	o := newOrchestrator(t, mock)

	resp := o.Edit(context.Background(), EditRequest{Input: "x", WasOriginalValid: true})

	assert.False(t, resp.IsValid)
	assert.Nil(t, resp.Content)
	assert.Equal(t, "Request failed: timeout", resp.RawResponse)
}

func TestOrchestrator_MetricsAndTraces(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	dir := t.TempDir()
	rec, err := debug.NewRecorder(debug.RecorderConfig{LogsDir: dir})
	require.NoError(t, err)

	mock := &MockLLMProvider{Responses: []string{validSingle, `{"promptBlocks": {"a": "b"}}`}}
	o := newOrchestrator(t, mock, func(c *Config) {
		c.Metrics = m
		c.Recorder = rec
	})

	o.Generate(context.Background(), GenerateRequest{Input: "x"})
	o.Edit(context.Background(), EditRequest{Input: "y", WasOriginalValid: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(OperationGenerate, "valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(OperationEdit, "rejected_shape")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Extractions.WithLabelValues("rejected_shape")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))

	assert.Equal(t, 2, rec.Count())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
