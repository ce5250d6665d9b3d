// Package app хранит состояние диалога вызывающей стороны.
//
// Orchestrator сам ничего не помнит между вызовами: промпт первого этапа,
// текущую конфигурацию и её корректность держит Session и по ним строит
// следующий EditRequest.
package app

import (
	"errors"
	"sync"

	"github.com/Rainytroy/May-Quote-sub001/internal/agent"
)

// ErrNoResult - правка запрошена до первой генерации.
var ErrNoResult = errors.New("nothing to edit yet: run generate first")

// Session - цепочка Generate → Edit → Edit для одного пользователя.
//
// Thread-safe через sync.RWMutex.
type Session struct {
	mu sync.RWMutex

	latest *agent.Response

	// firstStagePrompt - промпт, на который получена текущая конфигурация
	firstStagePrompt string

	// content - текущая конфигурация или сырой ответ, если она не распознана
	content string

	valid bool

	// turns - число принятых ответов (включая ошибки транспорта)
	turns int
}

// NewSession создает пустую сессию.
func NewSession() *Session {
	return &Session{}
}

// Apply принимает ответ Generate или Edit.
//
// Ответ с ошибкой транспорта (извлечение не выполнялось) не затирает
// текущую конфигурацию: следующая правка продолжит от неё.
// Успешное восстановление становится новым первым этапом.
func (s *Session) Apply(resp agent.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &resp
	s.turns++

	if resp.Status == "" {
		return
	}

	firstTurn := s.firstStagePrompt == "" && s.content == ""
	if firstTurn || (resp.Recovery && resp.IsValid) {
		s.firstStagePrompt = resp.Prompt
	}

	s.valid = resp.IsValid
	if resp.IsValid {
		s.content = resp.Text()
	} else {
		s.content = resp.RawResponse
	}
}

// Restart начинает новую цепочку с ответа Generate.
func (s *Session) Restart(resp agent.Response) {
	s.Reset()
	s.Apply(resp)
}

// NextEdit строит запрос правки из текущего состояния.
func (s *Session) NextEdit(input string) (agent.EditRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.firstStagePrompt == "" && s.content == "" {
		return agent.EditRequest{}, ErrNoResult
	}

	return agent.EditRequest{
		Input:            input,
		OriginalPrompt:   s.firstStagePrompt,
		OriginalContent:  s.content,
		WasOriginalValid: s.valid,
	}, nil
}

// Latest возвращает последний ответ.
func (s *Session) Latest() (agent.Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return agent.Response{}, false
	}
	return *s.latest, true
}

// Content возвращает текущую конфигурацию и признак её корректности.
func (s *Session) Content() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content, s.valid
}

// FirstStagePrompt возвращает промпт текущего первого этапа.
func (s *Session) FirstStagePrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstStagePrompt
}

// Turns возвращает число принятых ответов.
func (s *Session) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns
}

// Reset очищает сессию.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = nil
	s.firstStagePrompt = ""
	s.content = ""
	s.valid = false
	s.turns = 0
}
