package prompts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// Catalog - каталог шаблонов в памяти поверх Store.
//
// Встроенные шаблоны всегда присутствуют и идут первыми; их нельзя изменить
// или удалить. Пользовательские шаблоны проходят Validate перед записью,
// поэтому невалидный шаблон никогда не становится активным.
//
// Thread-safe: все методы защищены RWMutex.
type Catalog struct {
	mu        sync.RWMutex
	store     Store
	templates []TemplateSet
	activeID  string

	now   func() time.Time
	newID func() string
}

// NewCatalog создаёт каталог со встроенными шаблонами. Для чтения
// сохранённого состояния вызовите Load.
func NewCatalog(store Store) *Catalog {
	return &Catalog{
		store:     store,
		templates: Builtins(),
		activeID:  BuiltinStandardID,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Load читает каталог и активный ID из хранилища.
//
// Не возвращает ошибок: отсутствие данных и повреждение одинаково приводят
// к встроенному каталогу (повреждение пишется в лог). Невалидные и дублирующиеся
// пользовательские шаблоны отбрасываются.
func (c *Catalog) Load(ctx context.Context) {
	stored, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		utils.Info("Template store is empty, using built-in catalog")
		stored = nil
	case err != nil:
		utils.Warn("Template store is unreadable, using built-in catalog", "error", err)
		stored = nil
	}

	templates := Builtins()
	seen := map[string]bool{BuiltinStandardID: true, BuiltinSimpleID: true}
	for _, t := range stored {
		if seen[t.ID] {
			continue
		}
		if err := Validate(t); err != nil {
			utils.Warn("Dropping invalid stored template", "id", t.ID, "error", err)
			continue
		}
		t.IsDefault = false
		seen[t.ID] = true
		templates = append(templates, t)
	}

	activeID, err := c.store.LoadActiveID(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		utils.Warn("Active template id is unreadable", "error", err)
	}
	if !seen[activeID] {
		if activeID != "" {
			utils.Warn("Active template not in catalog, falling back to default", "id", activeID)
		}
		activeID = templates[0].ID
	}

	c.mu.Lock()
	c.templates = templates
	c.activeID = activeID
	c.mu.Unlock()

	utils.Info("Template catalog loaded", "templates", len(templates), "active", activeID)
}

// List возвращает копию каталога: встроенные, затем пользовательские в порядке добавления.
func (c *Catalog) List() []TemplateSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]TemplateSet, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get возвращает шаблон по ID.
func (c *Catalog) Get(id string) (TemplateSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.templates[i], nil
	}
	return TemplateSet{}, fmt.Errorf("%s: %w", id, ErrTemplateNotFound)
}

// Active возвращает активный шаблон.
func (c *Catalog) Active() TemplateSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(c.activeID); i >= 0 {
		return c.templates[i]
	}
	return c.templates[0]
}

// SetActive делает шаблон активным и сохраняет выбор.
func (c *Catalog) SetActive(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(id) < 0 {
		return fmt.Errorf("%s: %w", id, ErrTemplateNotFound)
	}
	if err := c.store.SaveActiveID(ctx, id); err != nil {
		return fmt.Errorf("failed to save active template: %w", err)
	}
	c.activeID = id
	return nil
}

// Add проверяет и добавляет новый пользовательский шаблон.
// ID и времена назначаются каталогом.
func (c *Catalog) Add(ctx context.Context, t TemplateSet) (TemplateSet, error) {
	if err := Validate(t); err != nil {
		return TemplateSet{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	t.ID = c.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.IsDefault = false

	next := append(c.cloneTemplates(), t)
	if err := c.save(ctx, next); err != nil {
		return TemplateSet{}, err
	}
	return t, nil
}

// Update заменяет тексты и имя пользовательского шаблона.
func (c *Catalog) Update(ctx context.Context, t TemplateSet) (TemplateSet, error) {
	if isBuiltinID(t.ID) {
		return TemplateSet{}, fmt.Errorf("%s: %w", t.ID, ErrBuiltinReadOnly)
	}
	if err := Validate(t); err != nil {
		return TemplateSet{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(t.ID)
	if i < 0 {
		return TemplateSet{}, fmt.Errorf("%s: %w", t.ID, ErrTemplateNotFound)
	}

	t.CreatedAt = c.templates[i].CreatedAt
	t.UpdatedAt = c.now()
	t.IsDefault = false

	next := c.cloneTemplates()
	next[i] = t
	if err := c.save(ctx, next); err != nil {
		return TemplateSet{}, err
	}
	return t, nil
}

// Delete удаляет пользовательский шаблон. Если он был активным,
// активным становится шаблон по умолчанию.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if isBuiltinID(id) {
		return fmt.Errorf("%s: %w", id, ErrBuiltinReadOnly)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrTemplateNotFound)
	}

	next := c.cloneTemplates()
	next = append(next[:i], next[i+1:]...)
	if err := c.save(ctx, next); err != nil {
		return err
	}

	if c.activeID == id {
		c.activeID = BuiltinStandardID
		if err := c.store.SaveActiveID(ctx, c.activeID); err != nil {
			return fmt.Errorf("failed to save active template: %w", err)
		}
	}
	return nil
}

// Reset возвращает каталог к встроенным шаблонам.
func (c *Catalog) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.save(ctx, Builtins()); err != nil {
		return err
	}
	c.activeID = BuiltinStandardID
	if err := c.store.SaveActiveID(ctx, c.activeID); err != nil {
		return fmt.Errorf("failed to save active template: %w", err)
	}
	return nil
}

// save пишет каталог и только после успеха подменяет состояние в памяти.
// Вызывается под c.mu.
func (c *Catalog) save(ctx context.Context, next []TemplateSet) error {
	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save templates: %w", err)
	}
	c.templates = next
	return nil
}

func (c *Catalog) indexOf(id string) int {
	for i, t := range c.templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) cloneTemplates() []TemplateSet {
	out := make([]TemplateSet, len(c.templates))
	copy(out, c.templates)
	return out
}
