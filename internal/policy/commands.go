package policy

import (
	"fmt"
	"strings"

	"chatrelay/internal/command"
)

// execute выполняет служебную команду и возвращает текст ответа. Модель не вызывается.
func (e *Engine) execute(conversationID string, cmd command.Command) string {
	switch cmd.Kind {
	case command.KindSwitchStyle:
		if !cmd.HasArg() {
			return "请指定要切换的风格，例如：[switch-style " + exampleStyle(e.styles.Names()) + "]"
		}
		if err := e.styles.Validate(cmd.Arg); err != nil {
			return err.Error()
		}
		e.sessions.SetStyle(conversationID, cmd.Arg)
		return fmt.Sprintf("已切换到 %s 风格！", cmd.Arg)
	case command.KindListStyles:
		return "可用风格：" + strings.Join(e.styles.Names(), ", ")
	default:
		return command.HelpText
	}
}

func exampleStyle(names []string) string {
	if len(names) == 0 {
		return "风格名"
	}
	return names[len(names)-1]
}
