// Package agent реализует двухэтапную оркестрацию генерации формы.
//
// Orchestrator связывает резолвер шаблонов (pkg/prompts), вызов модели
// (llm.Provider) и извлечение конфигурации (pkg/structured):
//
//	Idle → Building → AwaitingModel → Extracting → Done
//
// Ошибка транспорта переводит запрос сразу в Done с синтетическим ответом,
// наружу ошибки не выходят. Повторов и кэша здесь нет, они живут в llm.
//
// Вызывающий код не должен запускать второй Generate/Edit пока первый
// не завершился; IsProcessing() сообщает об этом, но не блокирует.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rainytroy/May-Quote-sub001/pkg/debug"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
	"github.com/Rainytroy/May-Quote-sub001/pkg/metrics"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
	"github.com/Rainytroy/May-Quote-sub001/pkg/structured"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// UnknownTemplateName - имя шаблона в ответе, когда шаблона нет.
const UnknownTemplateName = "unknown"

// Операции для метрик и трейсов.
const (
	OperationGenerate = "generate"
	OperationEdit     = "edit"
)

// ErrNoTemplate - ни в запросе, ни в оркестраторе нет шаблона.
var ErrNoTemplate = errors.New("no active template")

// Config конфигурация для создания Orchestrator.
type Config struct {
	// LLM - провайдер языковой модели (обязательный)
	LLM llm.Provider

	// Models - откуда брать имя выбранной модели для ответа (опционально)
	Models llm.ModelSelector

	// Options - параметры запроса к модели
	Options llm.GenerateOptions

	// SystemPrompt - системное сообщение перед промптом (пусто = не отправлять)
	SystemPrompt string

	// Template - начальный активный шаблон (опционально)
	Template *prompts.TemplateSet

	// Metrics - prometheus метрики (nil = выключены)
	Metrics *metrics.Metrics

	// Recorder - запись трейсов (nil = выключена)
	Recorder *debug.Recorder
}

// GenerateRequest - первый этап.
type GenerateRequest struct {
	Input string

	// Template переопределяет активный шаблон для этого вызова
	Template *prompts.TemplateSet
}

// EditRequest - последующая правка.
type EditRequest struct {
	// Input - текст правки от пользователя
	Input string

	// OriginalPrompt - промпт первого этапа, на который был получен OriginalContent
	OriginalPrompt string

	// OriginalContent - прошлая конфигурация (или сырой ответ, если она не распознана)
	OriginalContent string

	// WasOriginalValid выбирает ветку: второй этап шаблона или восстановление
	WasOriginalValid bool

	Template *prompts.TemplateSet
}

// Response - результат Generate/Edit.
type Response struct {
	structured.ExtractionResult

	RawResponse  string `json:"rawResponse"`
	TemplateName string `json:"templateName"`

	// Prompt - промпт, отправленный модели
	Prompt string `json:"prompt,omitempty"`

	// Model - выбранная модель, если известна
	Model string `json:"model,omitempty"`

	// Recovery - промпт построен восстановительной веткой
	Recovery bool `json:"recovery,omitempty"`
}

// Orchestrator выполняет Generate и Edit поверх llm.Provider.
type Orchestrator struct {
	llm          llm.Provider
	models       llm.ModelSelector
	options      llm.GenerateOptions
	systemPrompt string
	metrics      *metrics.Metrics
	recorder     *debug.Recorder

	// mu защищает только ссылку на активный шаблон
	mu       sync.RWMutex
	template *prompts.TemplateSet

	processing atomic.Bool
}

// New создаёт новый Orchestrator с заданной конфигурацией.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("cfg.LLM is required")
	}

	o := &Orchestrator{
		llm:          cfg.LLM,
		models:       cfg.Models,
		options:      cfg.Options,
		systemPrompt: cfg.SystemPrompt,
		metrics:      cfg.Metrics,
		recorder:     cfg.Recorder,
	}
	if cfg.Template != nil {
		o.SetTemplate(*cfg.Template)
	}
	return o, nil
}

// SetTemplate заменяет активный шаблон. Уже идущие вызовы не затрагиваются.
func (o *Orchestrator) SetTemplate(t prompts.TemplateSet) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.template = &t
}

// Template возвращает копию активного шаблона.
func (o *Orchestrator) Template() (prompts.TemplateSet, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.template == nil {
		return prompts.TemplateSet{}, false
	}
	return *o.template, true
}

// IsProcessing сообщает, ждёт ли сейчас какой-то вызов ответа модели.
func (o *Orchestrator) IsProcessing() bool {
	return o.processing.Load()
}

// Generate строит промпт первого этапа, вызывает модель и извлекает конфигурацию.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) Response {
	tpl, ok := o.snapshot(req.Template)
	if !ok {
		return o.fail(OperationGenerate, req.Input, "", ErrNoTemplate, time.Now())
	}

	prompt := prompts.ResolveFirstStage(tpl.FirstStage, req.Input)
	return o.run(ctx, OperationGenerate, tpl.Name, req.Input, prompt, false)
}

// Edit строит промпт правки и повторяет цикл.
//
// Если прошлая конфигурация была корректной, используется второй этап шаблона.
// Иначе шаблон игнорируется и строится восстановительный промпт с примерами форм.
func (o *Orchestrator) Edit(ctx context.Context, req EditRequest) Response {
	tpl, ok := o.snapshot(req.Template)
	if !ok {
		return o.fail(OperationEdit, req.Input, "", ErrNoTemplate, time.Now())
	}

	if !req.WasOriginalValid {
		prompt := prompts.BuildRecoveryPrompt(req.OriginalContent, req.Input)
		return o.run(ctx, OperationEdit, tpl.Name, req.Input, prompt, true)
	}

	prompt := prompts.ResolveSecondStage(tpl.SecondStage, req.OriginalPrompt, req.OriginalContent, req.Input)
	return o.run(ctx, OperationEdit, tpl.Name, req.Input, prompt, false)
}

// snapshot читает шаблон один раз на вызов.
func (o *Orchestrator) snapshot(override *prompts.TemplateSet) (prompts.TemplateSet, bool) {
	if override != nil {
		return *override, true
	}
	return o.Template()
}

func (o *Orchestrator) run(ctx context.Context, op, templateName, input, prompt string, recovery bool) Response {
	start := time.Now()
	done := o.metrics.Begin(op)

	o.processing.Store(true)
	defer o.processing.Store(false)

	model := o.selectedModel()
	utils.Info("Sending prompt to model",
		"operation", op,
		"template", templateName,
		"model", model,
		"recovery", recovery,
		"prompt_length", len(prompt))

	messages := make([]llm.Message, 0, 2)
	if o.systemPrompt != "" {
		messages = append(messages, llm.SystemMessage(o.systemPrompt))
	}
	messages = append(messages, llm.UserMessage(prompt))

	raw, err := o.llm.Chat(ctx, o.options.Request(messages...))
	if err != nil {
		done("transport_error")
		resp := failureResponse(templateName, err)
		resp.Prompt = prompt
		resp.Model = model
		resp.Recovery = recovery
		utils.Error("Model request failed", "operation", op, "template", templateName, "error", err)
		o.record(op, input, resp, start, err)
		return resp
	}

	result := structured.Extract(raw)
	o.metrics.ObserveExtraction(string(result.Status))
	done(string(result.Status))

	resp := Response{
		ExtractionResult: result,
		RawResponse:      raw,
		TemplateName:     templateName,
		Prompt:           prompt,
		Model:            model,
		Recovery:         recovery,
	}

	utils.Info("Model response processed",
		"operation", op,
		"status", result.Status,
		"valid", result.IsValid,
		"cards", result.CardCount,
		"admin_inputs", result.AdminInputCount,
		"prompt_blocks", result.PromptBlockCount,
		"duration", time.Since(start))
	for _, w := range result.Warnings {
		utils.Warn("Configuration lint", "warning", w)
	}

	o.record(op, input, resp, start, nil)
	return resp
}

// fail - ответ без вызова модели (нет шаблона).
func (o *Orchestrator) fail(op, input, templateName string, err error, start time.Time) Response {
	o.metrics.Begin(op)("transport_error")
	utils.Error("Request cannot be built", "operation", op, "error", err)

	resp := failureResponse(templateName, err)
	o.record(op, input, resp, start, err)
	return resp
}

func failureResponse(templateName string, err error) Response {
	if templateName == "" {
		templateName = UnknownTemplateName
	}
	return Response{
		RawResponse:  fmt.Sprintf("Request failed: %v", err),
		TemplateName: templateName,
	}
}

func (o *Orchestrator) selectedModel() string {
	if o.options.Model != "" {
		return o.options.Model
	}
	if o.models != nil {
		return o.models.SelectedModel()
	}
	return ""
}

func (o *Orchestrator) record(op, input string, resp Response, start time.Time, callErr error) {
	if o.recorder == nil {
		return
	}

	trace := debug.Trace{
		Timestamp:    start,
		Operation:    op,
		TemplateName: resp.TemplateName,
		Model:        resp.Model,
		Recovery:     resp.Recovery,
		UserInput:    input,
		Prompt:       resp.Prompt,
		RawResponse:  resp.RawResponse,
		Status:       string(resp.Status),
		IsValid:      resp.IsValid,
		Warnings:     resp.Warnings,
		Duration:     time.Since(start).Milliseconds(),
	}
	if resp.IsValid {
		trace.Stats = resp.Stats
	}
	if callErr != nil {
		trace.Error = callErr.Error()
	}

	path, err := o.recorder.Record(trace)
	if err != nil {
		utils.Error("Failed to save debug trace", "error", err)
		return
	}
	utils.Debug("Debug trace saved", "path", path)
}
