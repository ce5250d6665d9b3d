package prompts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts/sources"
	"github.com/Rainytroy/May-Quote-sub001/pkg/s3storage"
)

// ErrNotFound - в хранилище ещё нет данных (первый запуск).
var ErrNotFound = sources.ErrNotFound

// Store - граница хранения каталога шаблонов.
//
// Отсутствие данных сообщается через ErrNotFound; любая другая ошибка
// чтения считается повреждением и обрабатывается каталогом так же, как отсутствие.
type Store interface {
	Load(ctx context.Context) ([]TemplateSet, error)
	Save(ctx context.Context, templates []TemplateSet) error
	LoadActiveID(ctx context.Context) (string, error)
	SaveActiveID(ctx context.Context, id string) error
}

// SourceStore адаптирует sources.Source (TemplateData) к Store (TemplateSet).
type SourceStore struct {
	src   sources.Source
	close func() error
}

// NewSourceStore оборачивает бэкенд.
func NewSourceStore(src sources.Source) *SourceStore {
	return &SourceStore{src: src}
}

var _ Store = (*SourceStore)(nil)

func (s *SourceStore) Load(ctx context.Context) ([]TemplateSet, error) {
	data, err := s.src.Load(ctx)
	if err != nil {
		return nil, err
	}

	templates := make([]TemplateSet, 0, len(data))
	for _, d := range data {
		t, err := fromData(d)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w: %v", d.ID, sources.ErrCorrupt, err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (s *SourceStore) Save(ctx context.Context, templates []TemplateSet) error {
	data := make([]sources.TemplateData, len(templates))
	for i, t := range templates {
		data[i] = toData(t)
	}
	return s.src.Save(ctx, data)
}

func (s *SourceStore) LoadActiveID(ctx context.Context) (string, error) {
	return s.src.LoadActiveID(ctx)
}

func (s *SourceStore) SaveActiveID(ctx context.Context, id string) error {
	return s.src.SaveActiveID(ctx, id)
}

// Close освобождает ресурсы бэкенда (соединение с БД, клиент Redis).
func (s *SourceStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func toData(t TemplateSet) sources.TemplateData {
	return sources.TemplateData{
		ID:          t.ID,
		Name:        t.Name,
		FirstStage:  t.FirstStage,
		SecondStage: t.SecondStage,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
		IsDefault:   t.IsDefault,
	}
}

func fromData(d sources.TemplateData) (TemplateSet, error) {
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return TemplateSet{}, fmt.Errorf("createdAt: %w", err)
	}
	updated, err := parseTime(d.UpdatedAt)
	if err != nil {
		return TemplateSet{}, fmt.Errorf("updatedAt: %w", err)
	}
	return TemplateSet{
		ID:          d.ID,
		Name:        d.Name,
		FirstStage:  d.FirstStage,
		SecondStage: d.SecondStage,
		CreatedAt:   created,
		UpdatedAt:   updated,
		IsDefault:   d.IsDefault,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// CreateStore создаёт хранилище шаблонов по templates.store.type.
//
// Для добавления нового типа: реализуйте sources.Source и добавьте case сюда.
func CreateStore(cfg *config.AppConfig) (*SourceStore, error) {
	opts := cfg.Templates.Store.Config
	get := func(key, def string) string {
		if v := opts[key]; v != "" {
			return v
		}
		return def
	}

	switch cfg.Templates.Store.Type {
	case "", "memory":
		return NewSourceStore(sources.NewMemorySource()), nil

	case "file":
		return NewSourceStore(sources.NewFileSource(get("path", "./templates.json"))), nil

	case "database":
		db, err := sources.NewDatabaseSource(get("path", "./formgen.db"))
		if err != nil {
			return nil, err
		}
		return &SourceStore{src: db, close: db.Close}, nil

	case "redis":
		dbIndex, err := strconv.Atoi(get("db", "0"))
		if err != nil {
			return nil, fmt.Errorf("redis store: invalid db %q: %w", opts["db"], err)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     get("addr", "localhost:6379"),
			Password: opts["password"],
			DB:       dbIndex,
		})
		return &SourceStore{
			src:   sources.NewRedisSource(client, get("prefix", "formgen")),
			close: client.Close,
		}, nil

	case "s3":
		client, err := s3storage.New(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return NewSourceStore(sources.NewS3Source(client, get("prefix", "formgen"))), nil

	case "api":
		endpoint := opts["endpoint"]
		if endpoint == "" {
			return nil, fmt.Errorf("api store requires 'endpoint' config")
		}
		return NewSourceStore(sources.NewAPISource(endpoint, opts["auth_token"])), nil

	default:
		return nil, fmt.Errorf("unknown template store type: '%s'", cfg.Templates.Store.Type)
	}
}
