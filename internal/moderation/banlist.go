package moderation

import "strings"

// BanList набор запрещённых подстрок. Статичен после создания.
type BanList struct {
	words []string
}

// NewBanList нормализует слова так же, как входящий текст; пустые и повторы отбрасываются.
func NewBanList(words []string) *BanList {
	seen := make(map[string]struct{}, len(words))
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		n := Normalize(w)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	return &BanList{words: normalized}
}

// Normalize приводит текст к нижнему регистру и удаляет все пробельные символы.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), "")
}

// Match возвращает первое найденное запрещённое слово.
func (b *BanList) Match(text string) (string, bool) {
	if b == nil || len(b.words) == 0 {
		return "", false
	}
	normalized := Normalize(text)
	if normalized == "" {
		return "", false
	}
	for _, w := range b.words {
		if strings.Contains(normalized, w) {
			return w, true
		}
	}
	return "", false
}

// Len возвращает число слов в списке.
func (b *BanList) Len() int {
	if b == nil {
		return 0
	}
	return len(b.words)
}
