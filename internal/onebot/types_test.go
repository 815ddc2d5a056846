package onebot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_DecodeSegments(t *testing.T) {
	raw := `{
		"post_type": "message",
		"message_type": "group",
		"self_id": 100,
		"user_id": 7,
		"group_id": 42,
		"message": [
			{"type": "at", "data": {"qq": "100"}},
			{"type": "text", "data": {"text": " hello "}},
			{"type": "image", "data": {"file": "x.png"}}
		]
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.True(t, ev.IsMessage())
	assert.True(t, ev.IsGroup())
	assert.Equal(t, "group_42", ev.ConversationID())
	require.Len(t, ev.Message.Segments, 3)
	assert.Equal(t, SegmentMention, ev.Message.Segments[0].Kind)
	assert.Equal(t, SegmentOther, ev.Message.Segments[2].Kind)

	text, mentioned := ev.Message.Fold(ev.SelfID)
	assert.Equal(t, "hello", text)
	assert.True(t, mentioned)
}

func TestContent_Fold(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		selfID        int64
		wantText      string
		wantMentioned bool
	}{
		{
			name:          "mention of someone else",
			raw:           `[{"type":"at","data":{"qq":"555"}},{"type":"text","data":{"text":"hi"}}]`,
			selfID:        100,
			wantText:      "hi",
			wantMentioned: false,
		},
		{
			name:          "numeric qq",
			raw:           `[{"type":"at","data":{"qq":100}},{"type":"text","data":{"text":"hi"}}]`,
			selfID:        100,
			wantText:      "hi",
			wantMentioned: true,
		},
		{
			name:          "mention all is not a mention of self",
			raw:           `[{"type":"at","data":{"qq":"all"}},{"type":"text","data":{"text":"hi"}}]`,
			selfID:        100,
			wantText:      "hi",
			wantMentioned: false,
		},
		{
			name:          "string with cq code",
			raw:           `"[CQ:at,qq=100] 你好"`,
			selfID:        100,
			wantText:      "你好",
			wantMentioned: true,
		},
		{
			name:          "string with leading at",
			raw:           `"@bot 你好"`,
			selfID:        100,
			wantText:      "@bot 你好",
			wantMentioned: true,
		},
		{
			name:          "plain string",
			raw:           `"  just text  "`,
			selfID:        100,
			wantText:      "just text",
			wantMentioned: false,
		},
		{
			name:          "null message",
			raw:           `null`,
			selfID:        100,
			wantText:      "",
			wantMentioned: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &c))
			text, mentioned := c.Fold(tt.selfID)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantMentioned, mentioned)
		})
	}
}

func TestContent_DecodeError(t *testing.T) {
	var c Content
	assert.Error(t, json.Unmarshal([]byte(`{"type":"text"}`), &c))
}

func TestContent_MarshalKeepsShape(t *testing.T) {
	ev := Event{
		PostType:    PostTypeMessage,
		MessageType: MessageTypePrivate,
		UserID:      7,
		Message: Content{Segments: []Segment{
			{Kind: SegmentMention, Target: "100", Type: "at"},
			{Kind: SegmentText, Text: "hi", Type: "text"},
		}},
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	text, mentioned := back.Message.Fold(100)
	assert.Equal(t, "hi", text)
	assert.True(t, mentioned)
	assert.Equal(t, "private_7", back.ConversationID())
}

func TestEvent_Classification(t *testing.T) {
	retcode := 0
	assert.True(t, Event{Echo: json.RawMessage(`"1"`)}.IsAPIResponse())
	assert.True(t, Event{Retcode: &retcode}.IsAPIResponse())
	assert.False(t, Event{PostType: PostTypeMetaEvent}.IsAPIResponse())

	assert.True(t, Event{SelfID: 1, UserID: 1}.IsSelf())
	assert.False(t, Event{SelfID: 0, UserID: 0}.IsSelf())
	assert.Equal(t, "", Event{MessageType: "guild"}.ConversationID())
}
