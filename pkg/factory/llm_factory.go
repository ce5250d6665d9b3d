package factory

import (
	"fmt"

	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm/anthropic"
	"github.com/Rainytroy/May-Quote-sub001/pkg/llm/openai"
)

// NewLLMProvider создает провайдера на основе конфигурации модели
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "zai", "openai", "deepseek", "openrouter":
		return openai.NewClient(modelDef), nil

	case "anthropic", "claude":
		return anthropic.NewClient(modelDef), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
