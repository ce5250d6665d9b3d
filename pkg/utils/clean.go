package utils

import (
	"strings"
)

// MatchBrace ищет закрывающую скобку для '{' в позиции open.
//
// Скобки внутри JSON-строк (с учётом экранирования) не считаются.
// Возвращает индекс '}' и true, либо -1 и false если объект не закрыт.
//
// ВНИМАНИЕ: Не валидирует JSON, только баланс скобок.
func MatchBrace(s string, open int) (int, bool) {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return -1, false
	}

	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return -1, false
}

// WrapText переносит текст по словам с учетом заданной ширины.
//
// Сохраняет существующие переносы строк и не разрывает слова.
// Если ширина меньше 1, возвращает исходный текст без изменений.
func WrapText(s string, width int) string {
	if width < 1 {
		return s
	}

	lines := strings.Split(s, "\n")
	var result []string

	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			result = append(result, "")
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if len(currentLine)+1+len(word) <= width {
				currentLine += " " + word
			} else {
				result = append(result, currentLine)
				currentLine = word
			}
		}
		result = append(result, currentLine)
	}

	return strings.Join(result, "\n")
}
