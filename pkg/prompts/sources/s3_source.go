package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Rainytroy/May-Quote-sub001/pkg/s3storage"
)

// ObjectStore - минимум от объектного хранилища, нужный S3Source.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

var _ ObjectStore = (*s3storage.Client)(nil)

// S3Source - каталог шаблонов в объектном хранилище.
//
// Объекты: <prefix>/templates.json и <prefix>/active_id.
type S3Source struct {
	store  ObjectStore
	prefix string
}

// NewS3Source создаёт источник поверх клиента хранилища.
func NewS3Source(store ObjectStore, prefix string) *S3Source {
	return &S3Source{store: store, prefix: strings.Trim(prefix, "/")}
}

var _ Source = (*S3Source)(nil)

func (s *S3Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Source) get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.store.GetObject(ctx, s.key(name))
	if errors.Is(err, s3storage.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *S3Source) Load(ctx context.Context) ([]TemplateData, error) {
	data, err := s.get(ctx, "templates.json")
	if err != nil {
		return nil, err
	}

	var templates []TemplateData
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return templates, nil
}

func (s *S3Source) Save(ctx context.Context, templates []TemplateData) error {
	if templates == nil {
		templates = []TemplateData{}
	}
	data, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	return s.store.PutObject(ctx, s.key("templates.json"), data, "application/json")
}

func (s *S3Source) LoadActiveID(ctx context.Context) (string, error) {
	data, err := s.get(ctx, "active_id")
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *S3Source) SaveActiveID(ctx context.Context, id string) error {
	return s.store.PutObject(ctx, s.key("active_id"), []byte(id), "text/plain")
}
