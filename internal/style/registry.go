package style

import (
	"fmt"
	"sort"
	"strings"
)

const (
	StyleAbusive     = "abusive"
	StyleXiaohongshu = "xiaohongshu"
	StyleAssistant   = "assistant"
)

// Registry неизменяемый набор персон: имя -> системный промпт.
// Создаётся один раз при старте, дальше только чтение.
type Registry struct {
	prompts     map[string]string
	defaultName string
	names       []string
}

// Builtin возвращает встроенные персоны.
func Builtin() map[string]string {
	return map[string]string{
		StyleAbusive:     promptAbusive,
		StyleXiaohongshu: promptXiaohongshu,
		StyleAssistant:   promptAssistant,
	}
}

// NewRegistry собирает реестр из встроенных персон и extra (extra перекрывает встроенные).
// defaultName должен существовать в итоговом наборе.
func NewRegistry(defaultName string, extra map[string]string) (*Registry, error) {
	prompts := Builtin()
	for name, prompt := range extra {
		name = strings.TrimSpace(name)
		if name == "" || strings.TrimSpace(prompt) == "" {
			continue
		}
		prompts[name] = prompt
	}

	if defaultName == "" {
		defaultName = StyleAbusive
	}
	if _, ok := prompts[defaultName]; !ok {
		return nil, fmt.Errorf("default style %q is not registered", defaultName)
	}

	rest := make([]string, 0, len(prompts)-1)
	for name := range prompts {
		if name != defaultName {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return &Registry{
		prompts:     prompts,
		defaultName: defaultName,
		names:       append([]string{defaultName}, rest...),
	}, nil
}

// Default возвращает имя стиля по умолчанию.
func (r *Registry) Default() string {
	return r.defaultName
}

// Names возвращает имена стилей: сначала стиль по умолчанию, затем по алфавиту.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Has сообщает, зарегистрирован ли стиль с точным именем name.
func (r *Registry) Has(name string) bool {
	_, ok := r.prompts[name]
	return ok
}

// Resolve возвращает промпт стиля. Для пустого или неизвестного имени возвращает промпт по умолчанию.
func (r *Registry) Resolve(name string) string {
	if prompt, ok := r.prompts[name]; ok {
		return prompt
	}
	return r.prompts[r.defaultName]
}

// Validate проверяет имя для переключения стиля.
func (r *Registry) Validate(name string) error {
	if r.Has(name) {
		return nil
	}
	return &UnknownError{Name: name, Available: r.Names()}
}

// UnknownError возвращается при попытке выбрать незарегистрированный стиль.
type UnknownError struct {
	Name      string
	Available []string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("风格 '%s' 不存在。可用风格：%s", e.Name, strings.Join(e.Available, ", "))
}
