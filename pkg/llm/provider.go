// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider - контракт для любого AI-сервиса.
//
// Повторы, rate limiting и таймауты - ответственность реализации,
// вызывающий код их не видит.
type Provider interface {
	// Chat отправляет запрос и возвращает текстовый ответ (или JSON строку)
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// ModelSelector сообщает, какая модель выбрана сейчас.
type ModelSelector interface {
	SelectedModel() string
}

// ProviderFunc позволяет использовать функцию как Provider.
type ProviderFunc func(ctx context.Context, req ChatRequest) (string, error)

func (f ProviderFunc) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return f(ctx, req)
}
