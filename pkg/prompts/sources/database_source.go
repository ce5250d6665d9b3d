package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const activeIDKey = "active_id"

// DatabaseSource - каталог шаблонов в SQLite.
//
// Структура:
//
//	prompt_templates(id, position, name, first_stage, second_stage, created_at, updated_at, is_default)
//	template_settings(key, value) - здесь лежит active_id
type DatabaseSource struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDatabaseSource открывает (или создаёт) базу по пути и создаёт таблицы.
func NewDatabaseSource(path string) (*DatabaseSource, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &DatabaseSource{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

var _ Source = (*DatabaseSource)(nil)

func (s *DatabaseSource) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS prompt_templates (
			id           TEXT PRIMARY KEY,
			position     INTEGER NOT NULL,
			name         TEXT NOT NULL,
			first_stage  TEXT NOT NULL,
			second_stage TEXT NOT NULL,
			created_at   TEXT,
			updated_at   TEXT,
			is_default   INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS template_settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Close закрывает соединение с базой.
func (s *DatabaseSource) Close() error {
	return s.db.Close()
}

// Load возвращает шаблоны в порядке сохранения. Пустая таблица - ErrNotFound.
func (s *DatabaseSource) Load(ctx context.Context) ([]TemplateData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, first_stage, second_stage, created_at, updated_at, is_default
		FROM prompt_templates
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	defer rows.Close()

	var templates []TemplateData
	for rows.Next() {
		var (
			t                    TemplateData
			createdAt, updatedAt sql.NullString
			isDefault            int
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.FirstStage, &t.SecondStage, &createdAt, &updatedAt, &isDefault); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		t.CreatedAt = createdAt.String
		t.UpdatedAt = updatedAt.String
		t.IsDefault = isDefault != 0
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	if len(templates) == 0 {
		return nil, ErrNotFound
	}
	return templates, nil
}

// Save заменяет весь каталог одной транзакцией.
func (s *DatabaseSource) Save(ctx context.Context, templates []TemplateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_templates`); err != nil {
		return fmt.Errorf("failed to clear templates: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prompt_templates (id, position, name, first_stage, second_stage, created_at, updated_at, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range templates {
		isDefault := 0
		if t.IsDefault {
			isDefault = 1
		}
		if _, err := stmt.ExecContext(ctx, t.ID, i, t.Name, t.FirstStage, t.SecondStage, t.CreatedAt, t.UpdatedAt, isDefault); err != nil {
			return fmt.Errorf("failed to insert template %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

func (s *DatabaseSource) LoadActiveID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM template_settings WHERE key = ?`, activeIDKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("database query failed: %w", err)
	}
	return id, nil
}

func (s *DatabaseSource) SaveActiveID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO template_settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, activeIDKey, id)
	if err != nil {
		return fmt.Errorf("failed to save active id: %w", err)
	}
	return nil
}
