package structured

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// probe - поля верхнего уровня до выбора формы.
type probe struct {
	Cards              json.RawMessage `json:"cards"`
	AdminInputs        json.RawMessage `json:"adminInputs"`
	PromptBlocks       json.RawMessage `json:"promptBlocks"`
	GlobalPromptBlocks json.RawMessage `json:"globalPromptBlocks"`
}

// Decode разбирает JSON объект в Config.
//
// Порядок проверки форм:
//  1. cards - непустой массив → KindMulti
//  2. adminInputs и promptBlocks присутствуют (JS-truthy) → KindSingle
//  3. иначе ErrRejectedShape
//
// Значения, не являющиеся объектами, считаются пустыми словарями:
// форма принимается по наличию ключей, а не по их содержимому.
func Decode(data []byte) (*Config, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	cfg := &Config{
		GlobalPromptBlocks: lenientEntries(p.GlobalPromptBlocks),
	}

	var cards []json.RawMessage
	if json.Unmarshal(p.Cards, &cards) == nil && len(cards) > 0 {
		cfg.Kind = KindMulti
		cfg.Cards = make([]Card, len(cards))
		for i, raw := range cards {
			cfg.Cards[i] = decodeCard(raw)
		}
		return cfg, nil
	}

	if truthy(p.AdminInputs) && truthy(p.PromptBlocks) {
		cfg.Kind = KindSingle
		cfg.AdminInputs = lenientEntries(p.AdminInputs)
		cfg.PromptBlocks = lenientEntries(p.PromptBlocks)
		return cfg, nil
	}

	return nil, ErrRejectedShape
}

func decodeCard(raw json.RawMessage) Card {
	var c struct {
		ID           json.RawMessage `json:"id"`
		Title        json.RawMessage `json:"title"`
		AdminInputs  json.RawMessage `json:"adminInputs"`
		PromptBlocks json.RawMessage `json:"promptBlocks"`
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Card{}
	}
	return Card{
		ID:           scalarText(c.ID),
		Title:        scalarText(c.Title),
		AdminInputs:  lenientEntries(c.AdminInputs),
		PromptBlocks: lenientEntries(c.PromptBlocks),
	}
}

// lenientEntries возвращает nil для всего, что не является объектом.
func lenientEntries(raw json.RawMessage) Entries {
	if len(raw) == 0 {
		return nil
	}
	var e Entries
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil
	}
	return e
}

// truthy повторяет семантику JS: null, false, 0, "" и отсутствие - ложь.
func truthy(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 {
		return false
	}
	switch string(s) {
	case "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(s), 64); err == nil {
		return f != 0
	}
	return true
}

// scalarText - строка без кавычек, либо исходный JSON текст для прочих значений.
func scalarText(raw json.RawMessage) string {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 || string(s) == "null" {
		return ""
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(s, &str); err == nil {
			return str
		}
	}
	return string(s)
}
