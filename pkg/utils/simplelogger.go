// Package utils предоставляет логгер приложения и вспомогательные функции.
//
// Логгер построен на zap: по умолчанию пишет в .log файл в текущей директории
// с timestamp в имени. Пакетные функции Info/Warn/Error/Debug принимают
// пары ключ-значение, как zap.SugaredLogger.Infow.
//
// До вызова InitLogger все вызовы - no-op.
package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMutex sync.RWMutex
	sugar    = zap.NewNop().Sugar()
	base     = zap.NewNop()
)

// LogConfig - параметры логгера.
type LogConfig struct {
	// Level - debug, info, warn, error. Пусто = info.
	Level string

	// File - путь к лог-файлу. Пусто = formgen-YYYY-MM-DD-HH-MM.log.
	// "stderr" и "stdout" тоже допустимы.
	File string

	// JSON - писать строки в JSON вместо console-формата.
	JSON bool
}

// InitLogger создает zap логгер по конфигурации.
//
// Повторный вызов заменяет текущий логгер (старый синхронизируется).
func InitLogger(cfg LogConfig) error {
	path := cfg.File
	if path == "" {
		path = fmt.Sprintf("formgen-%s.log", time.Now().Format("2006-01-02-15-04"))
	}

	encoding := "console"
	if cfg.JSON {
		encoding = "json"
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	SetLogger(logger)
	Info("Logger initialized", "file", path)
	return nil
}

// SetLogger подменяет логгер (используется в тестах с zaptest/observer).
func SetLogger(l *zap.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()

	_ = base.Sync()
	base = l
	sugar = l.Sugar()
}

// Logger возвращает текущий *zap.Logger.
func Logger() *zap.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return base
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	logMutex.RLock()
	defer logMutex.RUnlock()
	sugar.Infow(msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	logMutex.RLock()
	defer logMutex.RUnlock()
	sugar.Errorw(msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	logMutex.RLock()
	defer logMutex.RUnlock()
	sugar.Debugw(msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	logMutex.RLock()
	defer logMutex.RUnlock()
	sugar.Warnw(msg, keyvals...)
}

// Close сбрасывает буферы и возвращает no-op логгер.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	// Sync на stderr/stdout возвращает EINVAL на части платформ - игнорируем.
	_ = base.Sync()
	base = zap.NewNop()
	sugar = base.Sugar()
}
