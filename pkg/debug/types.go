// Package debug сохраняет трейсы запросов оркестратора в JSON для
// последующего анализа, отладки промптов и шаблонов.
package debug

import "time"

// Trace - полный трейс одного вызова Generate или Edit.
type Trace struct {
	// RunID - уникальный идентификатор (используется в имени файла)
	RunID string `json:"run_id"`

	// Timestamp - время начала выполнения
	Timestamp time.Time `json:"timestamp"`

	// Operation - "generate" или "edit"
	Operation string `json:"operation"`

	TemplateName string `json:"template_name"`
	Model        string `json:"model,omitempty"`

	// Recovery - true если промпт построен восстановительной веткой
	Recovery bool `json:"recovery,omitempty"`

	// UserInput - исходный текст пользователя
	UserInput string `json:"user_input"`

	// Prompt - промпт, отправленный модели
	Prompt string `json:"prompt"`

	// RawResponse - ответ модели без изменений
	RawResponse string `json:"raw_response,omitempty"`

	// Результат извлечения
	Status   string   `json:"status,omitempty"`
	IsValid  bool     `json:"is_valid"`
	Stats    any      `json:"stats,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	// Duration - длительность в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Error - ошибка транспорта, если была
	Error string `json:"error,omitempty"`

	// RawTruncated - RawResponse был обрезан по MaxRawSize
	RawTruncated bool `json:"raw_truncated,omitempty"`
}
