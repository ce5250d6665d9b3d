package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSource - каталог шаблонов в Redis.
//
// Два ключа: <prefix>:templates (JSON массив) и <prefix>:active_id.
type RedisSource struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSource создаёт источник поверх готового клиента.
func NewRedisSource(client redis.UniversalClient, prefix string) *RedisSource {
	if prefix == "" {
		prefix = "formgen"
	}
	return &RedisSource{client: client, prefix: prefix}
}

var _ Source = (*RedisSource)(nil)

func (s *RedisSource) templatesKey() string { return s.prefix + ":templates" }
func (s *RedisSource) activeIDKey() string  { return s.prefix + ":active_id" }

func (s *RedisSource) Load(ctx context.Context) ([]TemplateData, error) {
	raw, err := s.client.Get(ctx, s.templatesKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.templatesKey(), err)
	}

	var templates []TemplateData
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return templates, nil
}

func (s *RedisSource) Save(ctx context.Context, templates []TemplateData) error {
	if templates == nil {
		templates = []TemplateData{}
	}
	raw, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	if err := s.client.Set(ctx, s.templatesKey(), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.templatesKey(), err)
	}
	return nil
}

func (s *RedisSource) LoadActiveID(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, s.activeIDKey()).Result()
	if errors.Is(err, redis.Nil) || (err == nil && id == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.activeIDKey(), err)
	}
	return id, nil
}

func (s *RedisSource) SaveActiveID(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, s.activeIDKey(), id, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.activeIDKey(), err)
	}
	return nil
}
