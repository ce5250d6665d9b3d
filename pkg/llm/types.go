// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Role - роль автора сообщения.
type Role string

// Константы для удобства
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatRequest - унифицированный запрос к любой модели
type ChatRequest struct {
	Model       string // Алиас или имя модели; пустое - модель провайдера по умолчанию
	Temperature float64
	MaxTokens   int
	Format      string    // "json_object" или пустая строка
	Messages    []Message // История чата
}

// Message - одно текстовое сообщение
type Message struct {
	Role    Role
	Content string
}

// UserMessage - короткий конструктор пользовательского сообщения.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage - короткий конструктор системного сообщения.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
