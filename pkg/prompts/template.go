// Package prompts - шаблоны двухэтапного протокола: подстановка токенов,
// встроенный каталог, проверка пользовательских шаблонов и их хранение.
//
// Резолвер чистый: без I/O, без ошибок, отсутствующие значения подставляются
// пустой строкой. Хранение вынесено за интерфейс Store (бэкенды в pkg/prompts/sources).
package prompts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TemplateSet - пара шаблонов (генерация + правка) с метаданными.
type TemplateSet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FirstStage  string    `json:"firstStage"`
	SecondStage string    `json:"secondStage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsDefault   bool      `json:"isDefault"`
}

// Ошибки каталога шаблонов.
var (
	ErrTemplateInvalid  = errors.New("template is invalid")
	ErrTemplateNotFound = errors.New("template not found")
	ErrBuiltinReadOnly  = errors.New("built-in template cannot be modified")
)

// ValidationError перечисляет все нарушенные правила.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTemplateInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrTemplateInvalid }

// Validate проверяет шаблон перед сохранением или активацией:
// name, firstStage, secondStage не пустые; firstStage содержит {#input};
// secondStage содержит {#promptResults1} и {#input}.
func Validate(t TemplateSet) error {
	var problems []string

	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, "name is empty")
	}

	if strings.TrimSpace(t.FirstStage) == "" {
		problems = append(problems, "firstStage is empty")
	} else if !strings.Contains(t.FirstStage, TokenInput) {
		problems = append(problems, "firstStage must contain "+TokenInput)
	}

	if strings.TrimSpace(t.SecondStage) == "" {
		problems = append(problems, "secondStage is empty")
	} else {
		if !strings.Contains(t.SecondStage, TokenPromptResults1) {
			problems = append(problems, "secondStage must contain "+TokenPromptResults1)
		}
		if !strings.Contains(t.SecondStage, TokenInput) {
			problems = append(problems, "secondStage must contain "+TokenInput)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValid - булева обёртка над Validate.
func IsValid(t TemplateSet) bool {
	return Validate(t) == nil
}
