// Package models предоставляет централизованный реестр LLM провайдеров.
//
// Реестр регистрирует все модели из config.yaml при старте и позволяет
// переключаться между ними во время выполнения. Сам реестр реализует
// llm.Provider: запрос маршрутизируется по алиасу в req.Model,
// а без алиаса уходит выбранной модели.
package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/factory"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
)

// Registry - потокобезопасное хранилище LLM провайдеров.
type Registry struct {
	mu       sync.RWMutex
	models   map[string]ModelEntry
	selected string
}

// ModelEntry - кешированный провайдер с конфигурацией.
type ModelEntry struct {
	Provider llm.Provider
	Config   config.ModelDef
}

// ErrModelNotFound - алиаса нет в реестре.
var ErrModelNotFound = errors.New("model not found in registry")

var (
	_ llm.Provider      = (*Registry)(nil)
	_ llm.ModelSelector = (*Registry)(nil)
)

// NewRegistry создаёт новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]ModelEntry),
	}
}

// CreateProvider создаёт провайдер для одной модели (через factory).
func CreateProvider(modelDef config.ModelDef) (llm.Provider, error) {
	return factory.NewLLMProvider(modelDef)
}

// Register добавляет модель в реестр. Первая зарегистрированная модель
// становится выбранной.
//
// Возвращает ошибку если модель с таким именем уже зарегистрирована.
func (r *Registry) Register(name string, modelDef config.ModelDef, provider llm.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[name]; exists {
		return fmt.Errorf("model '%s' already registered", name)
	}

	r.models[name] = ModelEntry{
		Provider: provider,
		Config:   modelDef,
	}
	if r.selected == "" {
		r.selected = name
	}
	return nil
}

// Get извлекает провайдер по имени модели.
func (r *Registry) Get(name string) (llm.Provider, config.ModelDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.models[name]
	if !ok {
		return nil, config.ModelDef{}, fmt.Errorf("%w: '%s'", ErrModelNotFound, name)
	}
	return entry.Provider, entry.Config, nil
}

// GetWithFallback извлекает провайдер с fallback на выбранную модель.
//
// Возвращает (provider, modelDef, actualModelName, error).
func (r *Registry) GetWithFallback(requested string) (llm.Provider, config.ModelDef, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.models[requested]; ok {
		return entry.Provider, entry.Config, requested, nil
	}
	if entry, ok := r.models[r.selected]; ok {
		return entry.Provider, entry.Config, r.selected, nil
	}
	return nil, config.ModelDef{}, "", fmt.Errorf("%w: neither requested '%s' nor selected '%s'", ErrModelNotFound, requested, r.selected)
}

// Select переключает модель по умолчанию.
func (r *Registry) Select(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[name]; !ok {
		return fmt.Errorf("%w: '%s'", ErrModelNotFound, name)
	}
	r.selected = name
	return nil
}

// SelectedModel возвращает алиас выбранной модели.
func (r *Registry) SelectedModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// Chat отправляет запрос провайдеру по алиасу req.Model (или выбранной модели).
func (r *Registry) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	provider, _, _, err := r.GetWithFallback(req.Model)
	if err != nil {
		return "", err
	}
	return provider.Chat(ctx, req)
}

// ListNames возвращает отсортированный список зарегистрированных имён моделей.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegistryFromConfig создаёт и заполняет реестр из конфигурации.
//
// Выбранной становится models.default_chat, иначе первая по алфавиту.
// Возвращает ошибку если хоть одна модель не инициализируется.
func NewRegistryFromConfig(cfg *config.AppConfig) (*Registry, error) {
	registry := NewRegistry()

	names := make([]string, 0, len(cfg.Models.Definitions))
	for name := range cfg.Models.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		modelDef := cfg.Models.Definitions[name]
		provider, err := CreateProvider(modelDef)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider for model '%s': %w", name, err)
		}

		if err := registry.Register(name, modelDef, provider); err != nil {
			return nil, fmt.Errorf("failed to register model '%s': %w", name, err)
		}
	}

	if cfg.Models.DefaultChat != "" {
		if err := registry.Select(cfg.Models.DefaultChat); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
