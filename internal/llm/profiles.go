package llm

// Profile параметры семплирования.
type Profile struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

var (
	// ProfileNormal для прямых обращений к боту.
	ProfileNormal = Profile{Temperature: 0.1, TopP: 0.1, MaxTokens: 1000}
	// ProfileAutoReply для случайных реплик в группе: короче и разнообразнее.
	ProfileAutoReply = Profile{Temperature: 1.0, TopP: 0.95, MaxTokens: 150}
)

// Mode режим генерации.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAutoReply
)

func (m Mode) String() string {
	if m == ModeAutoReply {
		return "auto_reply"
	}
	return "normal"
}

// Profile возвращает профиль семплирования режима.
func (m Mode) Profile() Profile {
	if m == ModeAutoReply {
		return ProfileAutoReply
	}
	return ProfileNormal
}

// autoReplyInstruction добавляется перед персоной в режиме авто-ответа.
const autoReplyInstruction = "你现在是在群聊里主动插话，没有人@你。只用一句很短的话（不超过20个字）接话，不要解释，不要提问。"
