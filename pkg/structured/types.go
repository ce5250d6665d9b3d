// Package structured извлекает структурированную конфигурацию формы из
// ответа LLM.
//
// Модель просят вернуть JSON одной из двух форм:
//
//	одиночная:    {"adminInputs": {...}, "promptBlocks": {...}}
//	многокарточная: {"cards": [{"id", "title", "adminInputs", "promptBlocks"}, ...],
//	               "globalPromptBlocks": {...}}
//
// Ответ модели - недоверенный текст с прозой вокруг JSON, поэтому поиск
// идёт эвристически, а все отказы возвращаются значением (Status), не ошибкой.
package structured

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind - форма конфигурации верхнего уровня.
type Kind int

const (
	// KindSingle - одиночная форма: adminInputs + promptBlocks.
	KindSingle Kind = iota + 1
	// KindMulti - многокарточная форма: непустой массив cards.
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// Entry - одна пара имя → текст (описание поля или инструкция блока).
type Entry struct {
	Name string
	Text string
}

// Entries - упорядоченный словарь в порядке ключей документа.
//
// Нестроковые JSON значения сохраняются как их исходный JSON текст.
// Дубликаты ключей ведут себя как JSON.parse: позиция первого, значение последнего.
type Entries []Entry

// Len возвращает количество записей.
func (e Entries) Len() int { return len(e) }

// Get возвращает текст по имени.
func (e Entries) Get(name string) (string, bool) {
	for _, entry := range e {
		if entry.Name == name {
			return entry.Text, true
		}
	}
	return "", false
}

// Names возвращает имена в порядке документа.
func (e Entries) Names() []string {
	names := make([]string, len(e))
	for i, entry := range e {
		names[i] = entry.Name
	}
	return names
}

// UnmarshalJSON читает JSON объект с сохранением порядка ключей.
func (e *Entries) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("entries: expected object, got %v", tok)
	}

	var out Entries
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("entries: unexpected key token %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("entries: value of %q: %w", key, err)
		}
		text := scalarText(raw)

		if pos, dup := index[key]; dup {
			out[pos].Text = text
			continue
		}
		index[key] = len(out)
		out = append(out, Entry{Name: key, Text: text})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}

// MarshalJSON пишет записи объектом в исходном порядке.
func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(entry.Name)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(entry.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Card - одна самостоятельная единица многокарточной конфигурации.
type Card struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	AdminInputs  Entries `json:"adminInputs"`
	PromptBlocks Entries `json:"promptBlocks"`
}

// Config - разобранная конфигурация (tagged variant по Kind).
//
// Для KindSingle заполнены AdminInputs/PromptBlocks, для KindMulti - Cards.
// GlobalPromptBlocks не зависит от формы.
type Config struct {
	Kind               Kind
	AdminInputs        Entries
	PromptBlocks       Entries
	Cards              []Card
	GlobalPromptBlocks Entries
}

// MarshalJSON пишет конфигурацию в wire-формате соответствующей формы.
func (c Config) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindMulti:
		doc := struct {
			Cards              []Card  `json:"cards"`
			GlobalPromptBlocks Entries `json:"globalPromptBlocks,omitempty"`
		}{c.Cards, c.GlobalPromptBlocks}
		return marshalNoEscape(doc)
	case KindSingle:
		doc := struct {
			AdminInputs        Entries `json:"adminInputs"`
			PromptBlocks       Entries `json:"promptBlocks"`
			GlobalPromptBlocks Entries `json:"globalPromptBlocks,omitempty"`
		}{c.AdminInputs, c.PromptBlocks, c.GlobalPromptBlocks}
		return marshalNoEscape(doc)
	default:
		return nil, fmt.Errorf("config: unknown kind %d", c.Kind)
	}
}

// Stats - сводка по форме конфигурации.
type Stats struct {
	CardCount        int  `json:"cardCount"`
	AdminInputCount  int  `json:"adminInputCount"`
	PromptBlockCount int  `json:"promptBlockCount"`
	HasGlobalBlock   bool `json:"hasGlobalBlock"`
}

// Status - исход извлечения.
type Status string

const (
	StatusValid         Status = "valid"
	StatusNoStructure   Status = "no_structure"
	StatusMalformed     Status = "malformed"
	StatusRejectedShape Status = "rejected_shape"
)

// Ошибки, соответствующие неуспешным статусам.
var (
	ErrNoStructure   = errors.New("no structured configuration found")
	ErrMalformed     = errors.New("structured configuration is malformed")
	ErrRejectedShape = errors.New("json matches neither cards nor adminInputs+promptBlocks shape")
)

// Err возвращает ошибку для статуса (nil для StatusValid).
func (s Status) Err() error {
	switch s {
	case StatusNoStructure:
		return ErrNoStructure
	case StatusMalformed:
		return ErrMalformed
	case StatusRejectedShape:
		return ErrRejectedShape
	default:
		return nil
	}
}

// ExtractionResult - результат Extract. Создаётся один раз на ответ модели.
//
// Content == nil только когда структура не найдена вообще. Для сломанного
// JSON там исходный фрагмент, для отвергнутой формы - отформатированный JSON.
type ExtractionResult struct {
	IsValid bool    `json:"isValid"`
	Content *string `json:"content"`
	Stats
	Status   Status   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`

	// Config - типизированный результат, только для IsValid.
	Config *Config `json:"-"`
}

// Text возвращает Content или пустую строку.
func (r ExtractionResult) Text() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
