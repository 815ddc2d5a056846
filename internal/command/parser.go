// Package command разбирает служебные команды вида "[команда аргумент]" в тексте сообщения.
package command

import (
	"regexp"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindSwitchStyle
	KindListStyles
	KindHelp
)

func (k Kind) String() string {
	switch k {
	case KindSwitchStyle:
		return "switch-style"
	case KindListStyles:
		return "list-styles"
	case KindHelp:
		return "help"
	default:
		return "none"
	}
}

// Ключевые слова и их китайские синонимы.
var (
	switchStyleKeywords = []string{"switch-style", "切换风格"}
	listStylesKeywords  = []string{"list-styles", "风格列表"}
	helpKeywords        = []string{"help", "帮助"}
)

// HelpText статическая справка по командам.
const HelpText = "可用命令：\n[switch-style 风格名]（或 [切换风格 风格名]）\n[list-styles]（或 [风格列表]）\n[help]（或 [帮助]）"

var directive = regexp.MustCompile(`^\[(.+?)\]`)

// Command результат разбора.
type Command struct {
	Kind Kind
	Arg  string // пусто, если аргумент не указан
}

// IsCommand сообщает, распознана ли команда.
func (c Command) IsCommand() bool {
	return c.Kind != KindNone
}

// HasArg сообщает, указан ли аргумент.
func (c Command) HasArg() bool {
	return c.Arg != ""
}

// Parse распознаёт команду в начале текста. Нераспознанное содержимое скобок командой не считается.
func Parse(text string) Command {
	match := directive.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return Command{}
	}
	body := strings.TrimSpace(match[1])

	for _, kw := range switchStyleKeywords {
		if strings.HasPrefix(body, kw) {
			fields := strings.Fields(body)
			if len(fields) >= 2 {
				return Command{Kind: KindSwitchStyle, Arg: fields[1]}
			}
			return Command{Kind: KindSwitchStyle}
		}
	}
	if oneOf(body, listStylesKeywords) {
		return Command{Kind: KindListStyles}
	}
	if oneOf(body, helpKeywords) {
		return Command{Kind: KindHelp}
	}
	return Command{}
}

func oneOf(body string, keywords []string) bool {
	for _, kw := range keywords {
		if body == kw {
			return true
		}
	}
	return false
}
