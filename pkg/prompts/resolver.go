package prompts

import (
	"fmt"
	"strings"

	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// Токены, которые подставляет сам резолвер. Остальные {#...} токены
// (inputBn, promptBlockn, cardId.blockId) принадлежат исполнителю формы
// и остаются в тексте как есть.
const (
	TokenInput            = "{#input}"
	TokenFirstStagePrompt = "{#firstStagePrompt}"
	TokenPromptResults1   = "{#promptResults1}"
)

// ResolveFirstStage подставляет пользовательский ввод во все вхождения {#input}.
//
// Пустой шаблон возвращается как есть (с записью в лог).
func ResolveFirstStage(template, input string) string {
	if template == "" {
		utils.Warn("First stage template is empty")
		return template
	}
	return strings.NewReplacer(TokenInput, input).Replace(template)
}

// ResolveSecondStage подставляет промпт первого этапа, его результат и текст правки.
//
// Замена выполняется за один проход: порядок токенов не важен, а подставленные
// значения повторно не сканируются (ввод, содержащий "{#input}", не раскрывается).
func ResolveSecondStage(template, firstStagePrompt, firstStageResult, edit string) string {
	if template == "" {
		utils.Warn("Second stage template is empty")
		return template
	}
	return strings.NewReplacer(
		TokenFirstStagePrompt, firstStagePrompt,
		TokenPromptResults1, firstStageResult,
		TokenInput, edit,
	).Replace(template)
}

// BuildRecoveryPrompt строит промпт перегенерации для случая, когда прошлый ответ
// не содержал корректной конфигурации. Активный шаблон здесь не используется.
func BuildRecoveryPrompt(original, edit string) string {
	return fmt.Sprintf(recoveryPromptFormat, original, edit)
}

const recoveryPromptFormat = `The previous answer did not contain a valid form configuration, so it has to be generated again from scratch.

Previous answer (for reference only, it may be incomplete or broken):
"""
%s
"""

User request for this attempt:
"""
%s
"""

Return exactly one JSON object and nothing else. It must have one of these two shapes.

Single form:
{
  "adminInputs": {
    "inputB1": "Description of the field <def>default value</def>"
  },
  "promptBlocks": {
    "promptBlock1": "Instruction that uses {#input} and {#inputB1}",
    "promptBlock2": "Instruction that refines {#promptBlock1}"
  }
}

Several cards:
{
  "cards": [
    {
      "id": "card1",
      "title": "First step",
      "adminInputs": {
        "inputB1": "Description of the field <def>default value</def>"
      },
      "promptBlocks": {
        "promptBlock1": "Instruction that uses {#input} and {#inputB1}"
      }
    }
  ],
  "globalPromptBlocks": {
    "promptBlock1": "Instruction that combines {#card1.promptBlock1}"
  }
}

Rules:
- Keep every placeholder in the {#name} form.
- Put default values inside <def>...</def> in adminInputs descriptions.
- Every prompt block after the first one must reference at least one placeholder.
- Output valid JSON: double quotes, no trailing commas, no comments.`
