package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder записывает трейсы в JSON файлы, по одному на вызов.
//
// Потокобезопасен. nil *Recorder ничего не пишет.
type Recorder struct {
	mu     sync.Mutex
	config RecorderConfig
	count  int
}

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir - директория для сохранения трейсов
	LogsDir string

	// MaxRawSize - максимальный размер RawResponse (превышение обрезается).
	// 0 означает без ограничений
	MaxRawSize int
}

// NewRecorder создает новый Recorder с заданной конфигурацией.
//
// Если LogsDir не существует, пытается создать её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}
	return &Recorder{config: cfg}, nil
}

// Record сохраняет трейс и возвращает путь к файлу.
//
// Пустые RunID и Timestamp заполняются автоматически.
func (r *Recorder) Record(trace Trace) (string, error) {
	if r == nil {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if trace.Timestamp.IsZero() {
		trace.Timestamp = time.Now()
	}
	if trace.RunID == "" {
		trace.RunID = fmt.Sprintf("%s_%s_%s", trace.Operation, trace.Timestamp.Format("20060102_150405"), uuid.NewString()[:8])
	}
	if r.config.MaxRawSize > 0 && len(trace.RawResponse) > r.config.MaxRawSize {
		trace.RawResponse = truncateString(trace.RawResponse, r.config.MaxRawSize)
		trace.RawTruncated = true
	}

	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal debug trace: %w", err)
	}

	filePath := filepath.Join(r.config.LogsDir, trace.RunID+".json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write debug trace: %w", err)
	}

	r.count++
	return filePath, nil
}

// Count возвращает количество записанных трейсов.
func (r *Recorder) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Helper функция для обрезки строки с индикатором.
func truncateString(s string, maxSize int) string {
	if maxSize <= 0 || len(s) <= maxSize {
		return s
	}
	return s[:maxSize] + "... (truncated)"
}
