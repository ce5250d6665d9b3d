package structured

import (
	"fmt"
	"regexp"
)

// placeholderRegex - токены вида {#input}, {#inputB1}, {#promptBlock2}, {#card1.promptBlock1}.
var placeholderRegex = regexp.MustCompile(`\{#[^{}#\s]+\}`)

// Analyze считает статистику формы.
//
// Для многокарточной формы admin inputs и prompt blocks берутся только из
// первой карточки: это превью «формы», а не сумма по всем карточкам.
func Analyze(cfg *Config) Stats {
	if cfg == nil {
		return Stats{}
	}

	stats := Stats{HasGlobalBlock: cfg.GlobalPromptBlocks.Len() > 0}

	switch cfg.Kind {
	case KindMulti:
		stats.CardCount = len(cfg.Cards)
		if len(cfg.Cards) > 0 {
			stats.AdminInputCount = cfg.Cards[0].AdminInputs.Len()
			stats.PromptBlockCount = cfg.Cards[0].PromptBlocks.Len()
		}
	case KindSingle:
		stats.AdminInputCount = cfg.AdminInputs.Len()
		stats.PromptBlockCount = cfg.PromptBlocks.Len()
	}

	return stats
}

// Placeholders возвращает все {#...} токены из prompt blocks (включая глобальные)
// в порядке появления, с повторами.
func (c *Config) Placeholders() []string {
	var tokens []string
	collect := func(blocks Entries) {
		for _, b := range blocks {
			tokens = append(tokens, placeholderRegex.FindAllString(b.Text, -1)...)
		}
	}

	collect(c.PromptBlocks)
	for _, card := range c.Cards {
		collect(card.PromptBlocks)
	}
	collect(c.GlobalPromptBlocks)

	return tokens
}

// Lint проверяет ожидаемый инвариант: каждый prompt block кроме первого
// в цепочке ссылается хотя бы на один токен.
//
// Это предупреждения, а не отказ: граф ссылок (циклы, висячие ссылки) не проверяется.
func Lint(cfg *Config) []string {
	if cfg == nil {
		return nil
	}

	var warnings []string
	check := func(scope string, blocks Entries) {
		for i, b := range blocks {
			if i == 0 {
				continue
			}
			if !placeholderRegex.MatchString(b.Text) {
				warnings = append(warnings, fmt.Sprintf("%s%s has no placeholder token", scope, b.Name))
			}
		}
	}

	switch cfg.Kind {
	case KindSingle:
		check("", cfg.PromptBlocks)
	case KindMulti:
		for i, card := range cfg.Cards {
			id := card.ID
			if id == "" {
				id = fmt.Sprintf("cards[%d]", i)
			}
			check(id+".", card.PromptBlocks)
		}
	}

	return warnings
}
