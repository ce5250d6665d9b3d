package sources

import (
	"context"
	"sync"
)

// MemorySource - хранилище в памяти процесса.
//
// Используется в тестах и как тип "memory" для одноразовых запусков CLI.
type MemorySource struct {
	mu        sync.RWMutex
	templates []TemplateData
	activeID  string
	saved     bool
}

// NewMemorySource создаёт пустое хранилище.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

var _ Source = (*MemorySource)(nil)

// Load возвращает копию сохранённых шаблонов или ErrNotFound до первого Save.
func (s *MemorySource) Load(ctx context.Context) ([]TemplateData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return nil, ErrNotFound
	}
	return cloneTemplates(s.templates), nil
}

func (s *MemorySource) Save(ctx context.Context, templates []TemplateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates = cloneTemplates(templates)
	s.saved = true
	return nil
}

func (s *MemorySource) LoadActiveID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return "", ErrNotFound
	}
	return s.activeID, nil
}

func (s *MemorySource) SaveActiveID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = id
	return nil
}
