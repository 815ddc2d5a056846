package onebot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	PostTypeMessage   = "message"
	PostTypeMetaEvent = "meta_event"

	MessageTypeGroup   = "group"
	MessageTypePrivate = "private"
)

// Event входящее событие OneBot v11. Поля, которые не нужны политике, не декодируются.
type Event struct {
	PostType      string          `json:"post_type"`
	MessageType   string          `json:"message_type"`
	MetaEventType string          `json:"meta_event_type,omitempty"`
	SelfID        int64           `json:"self_id"`
	UserID        int64           `json:"user_id"`
	GroupID       int64           `json:"group_id"`
	Message       Content         `json:"message"`
	Echo          json.RawMessage `json:"echo,omitempty"`
	Retcode       *int            `json:"retcode,omitempty"`
}

func (e Event) IsMessage() bool { return e.PostType == PostTypeMessage }
func (e Event) IsGroup() bool   { return e.MessageType == MessageTypeGroup }
func (e Event) IsPrivate() bool { return e.MessageType == MessageTypePrivate }

// IsSelf сообщение отправлено самим ботом.
func (e Event) IsSelf() bool { return e.SelfID != 0 && e.UserID == e.SelfID }

// IsAPIResponse кадр-ответ на вызов API по обратному WebSocket, а не событие.
func (e Event) IsAPIResponse() bool {
	return e.PostType == "" && (len(e.Echo) > 0 || e.Retcode != nil)
}

// ConversationID "group_<id>" для группы, "private_<id>" для лички, пусто для остального.
func (e Event) ConversationID() string {
	switch e.MessageType {
	case MessageTypeGroup:
		return "group_" + strconv.FormatInt(e.GroupID, 10)
	case MessageTypePrivate:
		return "private_" + strconv.FormatInt(e.UserID, 10)
	default:
		return ""
	}
}

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentMention
	SegmentOther
)

// Segment один элемент сообщения.
type Segment struct {
	Kind   SegmentKind
	Text   string // для SegmentText
	Target string // для SegmentMention: qq или "all"
	Type   string // исходный тип сегмента
}

// Content тело сообщения: массив сегментов или строка с CQ-кодами.
type Content struct {
	Segments []Segment
	Plain    bool // сообщение пришло строкой
}

// Text собирает Content из обычной строки.
func Text(s string) Content {
	return Content{Segments: []Segment{{Kind: SegmentText, Text: s, Type: "text"}}, Plain: true}
}

type rawSegment struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type segmentData struct {
	Text string          `json:"text"`
	QQ   json.RawMessage `json:"qq"`
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Content{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
		return nil
	}

	var raw []rawSegment
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode message segments: %w", err)
	}

	segments := make([]Segment, 0, len(raw))
	for _, rs := range raw {
		var d segmentData
		if len(rs.Data) > 0 {
			if err := json.Unmarshal(rs.Data, &d); err != nil {
				return fmt.Errorf("decode %s segment: %w", rs.Type, err)
			}
		}
		switch rs.Type {
		case "text":
			segments = append(segments, Segment{Kind: SegmentText, Text: d.Text, Type: rs.Type})
		case "at":
			segments = append(segments, Segment{Kind: SegmentMention, Target: unquote(d.QQ), Type: rs.Type})
		default:
			segments = append(segments, Segment{Kind: SegmentOther, Type: rs.Type})
		}
	}
	*c = Content{Segments: segments}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Plain {
		return json.Marshal(c.plainText())
	}
	out := make([]map[string]any, 0, len(c.Segments))
	for _, s := range c.Segments {
		switch s.Kind {
		case SegmentText:
			out = append(out, map[string]any{"type": "text", "data": map[string]string{"text": s.Text}})
		case SegmentMention:
			out = append(out, map[string]any{"type": "at", "data": map[string]string{"qq": s.Target}})
		default:
			out = append(out, map[string]any{"type": s.Type, "data": map[string]string{}})
		}
	}
	return json.Marshal(out)
}

// Fold возвращает текст сообщения без упоминания бота и признак обращения к боту.
func (c Content) Fold(selfID int64) (string, bool) {
	self := strconv.FormatInt(selfID, 10)

	if c.Plain {
		text := c.plainText()
		mentioned := false
		if selfID != 0 {
			code := "[CQ:at,qq=" + self + "]"
			if strings.Contains(text, code) {
				mentioned = true
				text = strings.ReplaceAll(text, code, "")
			}
		}
		text = strings.TrimSpace(text)
		if !mentioned && strings.HasPrefix(text, "@") {
			// грубая эвристика для строкового формата
			mentioned = true
		}
		return text, mentioned
	}

	var b strings.Builder
	mentioned := false
	for _, s := range c.Segments {
		switch s.Kind {
		case SegmentText:
			b.WriteString(s.Text)
		case SegmentMention:
			if selfID != 0 && s.Target == self {
				mentioned = true
			}
		}
	}
	return strings.TrimSpace(b.String()), mentioned
}

func (c Content) plainText() string {
	var b strings.Builder
	for _, s := range c.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// unquote приводит qq к строке: встречается и "123", и 123.
func unquote(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
