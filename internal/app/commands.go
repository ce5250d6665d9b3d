package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Rainytroy/May-Quote-sub001/pkg/structured"
)

// CommandHandler - тип функции-обработчика команды чата.
//
// Принимает сессию и аргументы команды, возвращает текст для вывода.
type CommandHandler func(session *Session, args []string) (string, error)

// CommandRegistry - реестр слэш-команд интерактивного режима.
//
// Thread-safe: одновременные вызовы безопасны.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]CommandHandler
}

// NewCommandRegistry создает новый пустой реестр команд.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]CommandHandler),
	}
}

// Register регистрирует новую команду в реестре.
//
// Если команда с таким именем уже существует, она будет перезаписана.
func (r *CommandRegistry) Register(name string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = handler
}

// IsCommand сообщает, является ли ввод командой, а не текстом для модели.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Execute парсит ввод на имя команды и аргументы и выполняет handler.
func (r *CommandRegistry) Execute(input string, session *Session) (string, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}

	cmd := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	// Получаем handler под read lock
	r.mu.RLock()
	handler, exists := r.commands[cmd]
	r.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("unknown command: '/%s', try /help", cmd)
	}

	return handler(session, args)
}

// GetCommands возвращает отсортированный список имен команд.
func (r *CommandRegistry) GetCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]string, 0, len(r.commands))
	for name := range r.commands {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	return cmds
}

// SetupSessionCommands регистрирует команды работы с сессией:
//   - /show   - текущая конфигурация
//   - /raw    - сырой ответ модели
//   - /prompt - промпт первого этапа
//   - /stats  - статистика последнего ответа
//   - /reset  - начать заново
//   - /help   - список команд
func SetupSessionCommands(registry *CommandRegistry) {
	registry.Register("show", func(s *Session, args []string) (string, error) {
		content, valid := s.Content()
		if content == "" {
			return "", ErrNoResult
		}
		if !valid {
			return "(not a valid configuration)\n" + content, nil
		}
		return content, nil
	})

	registry.Register("raw", func(s *Session, args []string) (string, error) {
		resp, ok := s.Latest()
		if !ok {
			return "", ErrNoResult
		}
		return resp.RawResponse, nil
	})

	registry.Register("prompt", func(s *Session, args []string) (string, error) {
		prompt := s.FirstStagePrompt()
		if prompt == "" {
			return "", ErrNoResult
		}
		return prompt, nil
	})

	registry.Register("stats", func(s *Session, args []string) (string, error) {
		resp, ok := s.Latest()
		if !ok {
			return "", ErrNoResult
		}
		return FormatStats(resp.Status, resp.Stats), nil
	})

	registry.Register("reset", func(s *Session, args []string) (string, error) {
		s.Reset()
		return "session cleared", nil
	})

	registry.Register("help", func(s *Session, args []string) (string, error) {
		names := registry.GetCommands()
		for i, name := range names {
			names[i] = "/" + name
		}
		return "Commands: " + strings.Join(names, " ") + "\nAny other text is sent to the model: the first message generates, the next ones edit.", nil
	})
}

// FormatStats - однострочная сводка извлечения.
func FormatStats(status structured.Status, stats structured.Stats) string {
	if status != structured.StatusValid {
		if status == "" {
			status = "request_failed"
		}
		return fmt.Sprintf("status=%s", status)
	}
	return fmt.Sprintf("status=%s cards=%d adminInputs=%d promptBlocks=%d global=%t",
		status, stats.CardCount, stats.AdminInputCount, stats.PromptBlockCount, stats.HasGlobalBlock)
}
