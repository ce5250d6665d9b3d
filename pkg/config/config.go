package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig - корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Models    ModelsConfig    `yaml:"models"`
	Templates TemplatesConfig `yaml:"templates"`
	S3        S3Config        `yaml:"s3"`
	App       AppSpecific     `yaml:"app"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ModelsConfig - настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас для чата по умолчанию (например, "gpt-4o")
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef - параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "openrouter", "anthropic" и т.д.
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"

	RateLimit     int `yaml:"rate_limit"`     // Запросов в минуту, 0 - без ограничения
	BurstLimit    int `yaml:"burst_limit"`    // Burst для rate limiter
	RetryAttempts int `yaml:"retry_attempts"` // Повторы на 429/5xx
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (m ModelDef) GetDefaults() ModelDef {
	result := m

	if result.MaxTokens == 0 {
		result.MaxTokens = 4000
	}
	if result.Timeout == 0 {
		result.Timeout = 120 * time.Second
	}
	if result.RateLimit > 0 && result.BurstLimit == 0 {
		result.BurstLimit = 1
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = 2
	}

	return result
}

// TemplatesConfig - где хранится каталог шаблонов.
type TemplatesConfig struct {
	Store TemplateStoreConfig `yaml:"store"`
}

// TemplateStoreConfig - тип хранилища и его параметры.
//
// Типы: memory, file, database, redis, s3, api.
type TemplateStoreConfig struct {
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

// S3Config - настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// AppSpecific - общие настройки приложения.
type AppSpecific struct {
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"` // Куда писать JSON трейсы запросов
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	LogJSON  bool   `yaml:"log_json"`
}

// MetricsConfig - экспорт Prometheus метрик.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
//
// Перед подстановкой подгружается .env из директории конфига (если есть);
// уже выставленные переменные окружения не перезаписываются.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает YAML (после подстановки ENV), применяет дефолты и валидирует.
func Parse(data []byte) (*AppConfig, error) {
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(data))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default возвращает конфигурацию без моделей: in-memory шаблоны, метрики выключены.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Templates.Store.Type == "" {
		c.Templates.Store.Type = "memory"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DebugDir == "" {
		c.App.DebugDir = "./debug_logs"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	for alias, def := range c.Models.Definitions {
		c.Models.Definitions[alias] = def.GetDefaults()
	}
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	for alias, def := range c.Models.Definitions {
		if def.Provider == "" {
			return fmt.Errorf("models.definitions.%s.provider is required", alias)
		}
		if def.ModelName == "" {
			return fmt.Errorf("models.definitions.%s.model_name is required", alias)
		}
	}

	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}

	switch c.Templates.Store.Type {
	case "memory", "file", "database", "redis", "api":
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for s3 template store")
		}
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required for s3 template store")
		}
	default:
		return fmt.Errorf("unknown templates.store.type: '%s'", c.Templates.Store.Type)
	}

	return nil
}

// GetChatModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}
