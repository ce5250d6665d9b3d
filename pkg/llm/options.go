// Package llm provides options pattern for LLM generation parameters.
//
// This package implements functional options for runtime parameter overrides
// while maintaining backward compatibility with existing code.
package llm

// GenerateOptions holds parameters for LLM generation.
// These options can be set at initialization (from config.yaml) and
// overridden at runtime (from CLI flags or direct calls).
type GenerateOptions struct {
	// Model is the model alias (e.g., "gpt-4o", "claude")
	Model string

	// Temperature controls randomness in responses (0.0 = deterministic, 1.0 = random)
	Temperature float64

	// MaxTokens limits the response length
	MaxTokens int

	// Format specifies response format (e.g., "json_object" for structured output)
	Format string
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// NewGenerateOptions applies opts in order over zero values.
func NewGenerateOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Request builds a ChatRequest carrying these options.
func (o GenerateOptions) Request(messages ...Message) ChatRequest {
	return ChatRequest{
		Model:       o.Model,
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
		Format:      o.Format,
		Messages:    messages,
	}
}

// WithModel sets the model for generation.
// Runtime override: takes precedence over config.yaml default.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature sets the temperature for generation.
// Runtime override: takes precedence over config.yaml default.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFormat sets the response format for generation.
// Use "json_object" for structured JSON output.
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}
