// Package app собирает компоненты приложения из конфигурации: реестр моделей,
// каталог шаблонов, метрики, трейсы и оркестратор.
//
// Используется всеми точками входа (CLI, будущий HTTP), чтобы код
// инициализации не дублировался.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Rainytroy/May-Quote-sub001/internal/agent"
	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/debug"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
	"github.com/Rainytroy/May-Quote-sub001/pkg/metrics"
	"github.com/Rainytroy/May-Quote-sub001/pkg/models"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// Components содержит все компоненты приложения для переиспользования.
type Components struct {
	Config       *config.AppConfig
	Models       *models.Registry
	Store        *prompts.SourceStore
	Catalog      *prompts.Catalog
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	Recorder     *debug.Recorder
	Orchestrator *agent.Orchestrator
}

// Options - параметры запуска поверх конфигурации (флаги CLI).
type Options struct {
	// Model переопределяет models.default_chat
	Model string

	// SystemPrompt - системное сообщение для каждого запроса
	SystemPrompt string

	// Debug включает запись трейсов независимо от app.debug
	Debug bool

	// Temperature и MaxTokens переопределяют настройки модели, если > 0
	Temperature float64
	MaxTokens   int
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder реализует стандартную стратегию поиска config.yaml.
//
// Порядок поиска:
// 1. Флаг --config (если указан)
// 2. Переменная окружения FORMGEN_CONFIG
// 3. Текущая директория (./config.yaml)
// 4. Директория бинарника
type DefaultConfigPathFinder struct {
	// ConfigFlag - значение флага --config, если указан
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
//
// Возвращает пустую строку если файл не найден: тогда используется config.Default().
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	// 1. Флаг имеет приоритет
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	// 2. Переменная окружения
	if env := os.Getenv("FORMGEN_CONFIG"); env != "" {
		return resolveAbsPath(env)
	}

	// 3. Текущая директория
	if _, err := os.Stat("config.yaml"); err == nil {
		return resolveAbsPath("config.yaml")
	}

	// 4. Директория бинарника
	if execPath, err := os.Executable(); err == nil {
		cfgPath := filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(cfgPath); err == nil {
			return cfgPath
		}
	}

	return ""
}

// InitializeConfig находит и загружает конфигурацию.
//
// Если файл не найден, возвращает config.Default() и пустой путь.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()
	if cfgPath == "" {
		return config.Default(), "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// InitializeCatalog создаёт хранилище и загружает каталог шаблонов.
//
// Не требует моделей: используется командами управления шаблонами.
func InitializeCatalog(ctx context.Context, cfg *config.AppConfig) (*prompts.SourceStore, *prompts.Catalog, error) {
	store, err := prompts.CreateStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create template store: %w", err)
	}

	catalog := prompts.NewCatalog(store)
	catalog.Load(ctx)
	return store, catalog, nil
}

// Initialize создаёт и инициализирует все компоненты приложения.
func Initialize(ctx context.Context, cfg *config.AppConfig, opts Options) (*Components, error) {
	utils.Info("Initializing components",
		"store", cfg.Templates.Store.Type,
		"models", len(cfg.Models.Definitions),
		"metrics", cfg.Metrics.Enabled)

	// 1. Реестр моделей
	registry, err := models.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model registry: %w", err)
	}
	if len(registry.ListNames()) == 0 {
		return nil, errors.New("no models configured: add models.definitions to config.yaml")
	}
	if opts.Model != "" {
		if err := registry.Select(opts.Model); err != nil {
			return nil, err
		}
	}
	utils.Info("Model registry initialized", "models", registry.ListNames(), "selected", registry.SelectedModel())

	// 2. Каталог шаблонов
	store, catalog, err := InitializeCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &Components{
		Config:  cfg,
		Models:  registry,
		Store:   store,
		Catalog: catalog,
	}

	// 3. Метрики
	if cfg.Metrics.Enabled {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(collectors.NewGoCollector())
		c.Metrics = metrics.New(c.Registry)
	}

	// 4. Трейсы
	if opts.Debug || cfg.App.Debug {
		recorder, err := debug.NewRecorder(debug.RecorderConfig{LogsDir: cfg.App.DebugDir})
		if err != nil {
			utils.Error("Failed to create debug recorder", "error", err)
		} else {
			c.Recorder = recorder
			utils.Info("Debug traces enabled", "dir", cfg.App.DebugDir)
		}
	}

	// 5. Оркестратор
	var genOpts []llm.GenerateOption
	if opts.Temperature > 0 {
		genOpts = append(genOpts, llm.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		genOpts = append(genOpts, llm.WithMaxTokens(opts.MaxTokens))
	}

	active := catalog.Active()
	orchestrator, err := agent.New(agent.Config{
		LLM:          registry,
		Models:       registry,
		Options:      llm.NewGenerateOptions(genOpts...),
		SystemPrompt: opts.SystemPrompt,
		Template:     &active,
		Metrics:      c.Metrics,
		Recorder:     c.Recorder,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	c.Orchestrator = orchestrator

	return c, nil
}

// ActivateTemplate делает шаблон активным в каталоге и в оркестраторе.
func (c *Components) ActivateTemplate(ctx context.Context, id string) (prompts.TemplateSet, error) {
	if err := c.Catalog.SetActive(ctx, id); err != nil {
		return prompts.TemplateSet{}, err
	}
	active := c.Catalog.Active()
	if c.Orchestrator != nil {
		c.Orchestrator.SetTemplate(active)
	}
	return active, nil
}

// Close освобождает хранилище шаблонов.
func (c *Components) Close() {
	if c.Store == nil {
		return
	}
	if err := c.Store.Close(); err != nil {
		utils.Error("Failed to close template store", "error", err)
	}
}

// resolveAbsPath преобразует путь в абсолютный (если это не уже абсолютный путь).
func resolveAbsPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
