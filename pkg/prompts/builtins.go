package prompts

import "time"

// ID встроенных шаблонов.
const (
	BuiltinStandardID = "default-standard"
	BuiltinSimpleID   = "default-simple"
)

// builtinTime - фиксированная дата встроенных шаблонов, чтобы каталог был детерминирован.
var builtinTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// BuiltinStandard - подробный шаблон: объясняет формат и правила целиком.
func BuiltinStandard() TemplateSet {
	return TemplateSet{
		ID:          BuiltinStandardID,
		Name:        "Standard",
		FirstStage:  standardFirstStage,
		SecondStage: standardSecondStage,
		CreatedAt:   builtinTime,
		UpdatedAt:   builtinTime,
		IsDefault:   true,
	}
}

// BuiltinSimple - короткий шаблон для быстрых итераций.
func BuiltinSimple() TemplateSet {
	return TemplateSet{
		ID:          BuiltinSimpleID,
		Name:        "Simple",
		FirstStage:  simpleFirstStage,
		SecondStage: simpleSecondStage,
		CreatedAt:   builtinTime,
		UpdatedAt:   builtinTime,
		IsDefault:   true,
	}
}

// Builtins возвращает встроенный каталог. Первый элемент - шаблон по умолчанию.
func Builtins() []TemplateSet {
	return []TemplateSet{BuiltinStandard(), BuiltinSimple()}
}

func isBuiltinID(id string) bool {
	return id == BuiltinStandardID || id == BuiltinSimpleID
}

const standardFirstStage = `You design small AI tools. Each tool is a form that an administrator fills in, plus an ordered chain of prompt blocks that a model executes one after another.

Task from the user:
{#input}

Describe the tool as a single JSON object.

If one step is enough, use this shape:
{
  "adminInputs": {
    "inputB1": "What the administrator enters here <def>sensible default</def>"
  },
  "promptBlocks": {
    "promptBlock1": "First instruction, using {#input} and {#inputB1}",
    "promptBlock2": "Next instruction that builds on {#promptBlock1}"
  }
}

If the task splits into independent parts, use cards:
{
  "cards": [
    {
      "id": "card1",
      "title": "Short title",
      "adminInputs": {"inputB1": "Field description <def>default</def>"},
      "promptBlocks": {"promptBlock1": "Instruction using {#input} and {#inputB1}"}
    }
  ],
  "globalPromptBlocks": {
    "promptBlock1": "Optional final step combining {#card1.promptBlock1}"
  }
}

Rules:
1. {#input} is the end user's text, {#inputBn} is admin input n, {#promptBlockn} is the output of block n, {#cardId.promptBlockId} refers to a block of another card.
2. Every admin input description puts its default value inside <def>...</def>.
3. Every prompt block after the first one must reference at least one earlier result or input.
4. Keep block instructions specific and self-contained.
5. Answer with the JSON only, no explanations and no markdown.`

const standardSecondStage = `You previously designed an AI tool for this request:
"""
{#firstStagePrompt}
"""

The current configuration is:
{#promptResults1}

The user wants the following change:
{#input}

Apply the change and return the complete updated configuration as one JSON object with the same shape as before (adminInputs + promptBlocks, or cards + optional globalPromptBlocks).
Keep placeholder tokens in the {#name} form, keep defaults inside <def>...</def>, and keep existing blocks unless the change requires otherwise.
Answer with the JSON only, no explanations and no markdown.`

const simpleFirstStage = `Create a form configuration for: {#input}

Return only JSON: {"adminInputs": {"inputB1": "description <def>default</def>"}, "promptBlocks": {"promptBlock1": "instruction using {#input} and {#inputB1}"}}
Use "cards" with id, title, adminInputs and promptBlocks if the task has several independent parts.`

const simpleSecondStage = `Current configuration:
{#promptResults1}

Change request: {#input}

Return only the full updated JSON.`
