package structured

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// structureKeys - литеральные ключи, по которым {...} фрагмент считается кандидатом.
var structureKeys = []string{`"cards"`, `"adminInputs"`, `"promptBlocks"`}

var (
	jsonFenceRegex = regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)```")
	anyFenceRegex  = regexp.MustCompile("```[A-Za-z0-9_-]*\\s*([\\s\\S]*?)```")
)

// Extract находит, разбирает и классифицирует конфигурацию в ответе модели.
//
// Никогда не паникует и не возвращает ошибку - все исходы в Status:
//   - StatusNoStructure: нет {...} с ключом cards/adminInputs/promptBlocks
//   - StatusMalformed: фрагмент найден, но это не JSON (Content = фрагмент как есть)
//   - StatusRejectedShape: JSON, но не подходит ни под одну форму
//   - StatusValid: конфигурация принята, посчитана статистика
func Extract(raw string) ExtractionResult {
	span, ok := FindStructure(raw)
	if !ok {
		utils.Debug("No structured configuration in response", "length", len(raw))
		return ExtractionResult{Status: StatusNoStructure}
	}

	if !json.Valid([]byte(span)) {
		utils.Debug("Structured configuration is malformed", "span_length", len(span))
		return ExtractionResult{Status: StatusMalformed, Content: &span}
	}

	content := FormatJSON(span)

	cfg, err := Decode([]byte(span))
	if err != nil {
		utils.Debug("Structured configuration rejected", "error", err)
		return ExtractionResult{Status: StatusRejectedShape, Content: &content}
	}

	return ExtractionResult{
		IsValid:  true,
		Content:  &content,
		Stats:    Analyze(cfg),
		Status:   StatusValid,
		Warnings: Lint(cfg),
		Config:   cfg,
	}
}

// FindStructure ищет первый {...} фрагмент, содержащий один из ключей
// "cards", "adminInputs", "promptBlocks".
//
// Скобки сопоставляются с учётом JSON-строк, поэтому фигурные скобки в прозе
// до JSON (например "{name}") пропускаются целиком. Если у открывающей скобки
// нет пары (обрезанный ответ), кандидатом становится фрагмент до последней '}'.
//
// Если кандидат не JSON, берётся первый следующий корректный фрагмент с ключом,
// но только когда он не продолжает начало кандидата как вложенное значение:
// обрезанный {"cards": [{...}, ... остаётся сломанным, а "{a, b и потом: {...}"
// отдаёт конфигурацию.
func FindStructure(s string) (string, bool) {
	start, span, ok := firstCandidate(s)
	if !ok {
		return "", false
	}
	if json.Valid([]byte(span)) {
		return span, true
	}
	if later, ok := laterValidCandidate(s, start); ok {
		return later, true
	}
	return span, true
}

func firstCandidate(s string) (int, string, bool) {
	for i := 0; i < len(s); {
		rel := strings.IndexByte(s[i:], '{')
		if rel < 0 {
			break
		}
		start := i + rel

		end, ok := utils.MatchBrace(s, start)
		if !ok {
			last := strings.LastIndexByte(s, '}')
			if last > start && hasStructureKey(s[start:last+1]) {
				return start, s[start : last+1], true
			}
			i = start + 1
			continue
		}

		span := s[start : end+1]
		if hasStructureKey(span) {
			return start, span, true
		}
		i = end + 1
	}
	return 0, "", false
}

func laterValidCandidate(s string, start int) (string, bool) {
	for i := start + 1; i < len(s); {
		rel := strings.IndexByte(s[i:], '{')
		if rel < 0 {
			break
		}
		pos := i + rel
		i = pos + 1

		end, ok := utils.MatchBrace(s, pos)
		if !ok {
			continue
		}
		span := s[pos : end+1]
		if !hasStructureKey(span) || !json.Valid([]byte(span)) {
			continue
		}
		if nestedValue(s[start:pos]) {
			continue
		}
		return span, true
	}
	return "", false
}

// nestedValue сообщает, что prefix - корректное начало JSON, оборванное там,
// где допустим вложенный объект. Незакрытая строка, позиция ключа или
// синтаксическая ошибка дают false.
func nestedValue(prefix string) bool {
	dec := json.NewDecoder(strings.NewReader(prefix + "{}"))
	for {
		if _, err := dec.Token(); err != nil {
			return err == io.EOF
		}
	}
}

func hasStructureKey(s string) bool {
	for _, key := range structureKeys {
		if strings.Contains(s, key) {
			return true
		}
	}
	return false
}

// ExtractPossibleJSON - мягкое восстановление, когда Extract ничего не нашёл.
//
// Порядок попыток (первый непустой выигрывает):
//  1. самый широкий {...}: от первой '{' до последней '}'
//  2. фрагмент FindStructure
//  3. содержимое ```json блока
//  4. содержимое любого ``` блока
//
// Текст не парсится и не валидируется, только сужается.
func ExtractPossibleJSON(s string) (string, bool) {
	if first := strings.IndexByte(s, '{'); first >= 0 {
		if last := strings.LastIndexByte(s, '}'); last > first {
			return s[first : last+1], true
		}
	}

	if span, ok := FindStructure(s); ok {
		return span, true
	}

	for _, re := range []*regexp.Regexp{jsonFenceRegex, anyFenceRegex} {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			if body := strings.TrimSpace(m[1]); body != "" {
				return body, true
			}
		}
	}

	return "", false
}

// FormatJSON форматирует JSON с отступом в 2 пробела.
//
// Строку (или []byte) парсит и переформатирует; если это не JSON -
// возвращает без изменений. Прочие значения сериализуются без HTML-экранирования,
// чтобы маркеры <def>...</def> остались читаемыми. Функция - неподвижная точка
// на собственном результате.
//
// Текст JSON переформатируется через json.Indent: запись чисел и escape-
// последовательностей сохраняется как в источнике ({"a":1.0} остаётся 1.0),
// поэтому сравнивать Content с повторной сериализацией значения нельзя.
func FormatJSON(v any) string {
	switch x := v.(type) {
	case string:
		return formatJSONText(x)
	case []byte:
		return formatJSONText(string(x))
	case json.RawMessage:
		return formatJSONText(string(x))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func formatJSONText(s string) string {
	trimmed := strings.TrimSpace(s)
	if !json.Valid([]byte(trimmed)) {
		return s
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
