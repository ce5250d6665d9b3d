// Package sources содержит бэкенды хранения каталога шаблонов.
//
// Пакет не импортирует pkg/prompts: все бэкенды работают с сырыми
// TemplateData, а преобразование в prompts.TemplateSet делает адаптер
// в pkg/prompts.
package sources

import (
	"context"
	"errors"
)

// ErrNotFound - в хранилище ещё ничего нет (первый запуск).
var ErrNotFound = errors.New("not found in template source")

// ErrCorrupt - данные есть, но прочитать их нельзя.
var ErrCorrupt = errors.New("template source data is corrupt")

// TemplateData - сырой шаблон в wire-формате хранилища.
//
// Времена хранятся строками RFC3339, как в исходном JSON.
type TemplateData struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	FirstStage  string `json:"firstStage" yaml:"firstStage"`
	SecondStage string `json:"secondStage" yaml:"secondStage"`
	CreatedAt   string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	IsDefault   bool   `json:"isDefault" yaml:"isDefault"`
}

// Document - каталог целиком: так он лежит в файле и в S3.
type Document struct {
	Templates []TemplateData `json:"templates" yaml:"templates"`
	ActiveID  string         `json:"activeId,omitempty" yaml:"activeId,omitempty"`
}

// Source - контракт, который реализует каждый бэкенд.
type Source interface {
	Load(ctx context.Context) ([]TemplateData, error)
	Save(ctx context.Context, templates []TemplateData) error
	LoadActiveID(ctx context.Context) (string, error)
	SaveActiveID(ctx context.Context, id string) error
}

func cloneTemplates(in []TemplateData) []TemplateData {
	if in == nil {
		return nil
	}
	out := make([]TemplateData, len(in))
	copy(out, in)
	return out
}
