package assistant

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/llm"
)

// scriptedModel replays a fixed reply split into chunks, optionally failing
// after them.
type scriptedModel struct {
	chunks []llm.Chunk
	err    error

	calls    int
	messages []llm.Message
}

func (m *scriptedModel) ChatStream(_ context.Context, messages []llm.Message) iter.Seq2[llm.Chunk, error] {
	m.calls++
	m.messages = messages
	return func(yield func(llm.Chunk, error) bool) {
		for _, c := range m.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if m.err != nil {
			yield(llm.Chunk{}, m.err)
		}
	}
}

func replying(parts ...string) *scriptedModel {
	m := &scriptedModel{}
	for i, p := range parts {
		m.chunks = append(m.chunks, llm.Chunk{Content: p, Done: i == len(parts)-1})
	}
	return m
}

func TestAssistant_Reply(t *testing.T) {
	tests := []struct {
		name  string
		model *scriptedModel
		want  string
	}{
		{
			name:  "plain conversation",
			model: replying("  You have ", "no overdue tasks.  "),
			want:  "You have no overdue tasks.",
		},
		{
			name:  "pure json without commands is suppressed",
			model: replying("{ this is ", "not json }"),
			want:  "",
		},
		{
			name:  "unknown actions produce nothing",
			model: replying(`{"action":"archive_task","title":"x"}`),
			want:  "",
		},
		{
			name:  "commands replace the model text",
			model: replying("Creating it:\n```json\n", `{"action":"create_task","title":"Buy milk"}`, "\n```"),
			want:  `✅ Task "Buy milk" created.`,
		},
		{
			name: "batch results are joined",
			model: replying(`[{"action":"create_task","title":"A","assignee":"John Employee"},`,
				`{"action":"list_tasks","filter":{"status":"todo"}}]`),
			want: "✅ Task \"A\" created and assigned to John Employee.\nTasks:\n- A (TODO, MEDIUM)",
		},
		{
			name: "text after the final chunk is ignored",
			model: &scriptedModel{chunks: []llm.Chunk{
				{Content: "Hello", Done: true},
				{Content: ` {"action":"create_task"}`},
			}},
			want: "Hello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := New(tt.model, f.tasks, f.users, zap.NewNop())

			got, err := a.Reply(context.Background(), f.requester(f.admin), "do the thing")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, tt.model.calls)
		})
	}
}

func TestAssistant_ReplySendsGroundedConversation(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, "Buy milk", f.admin, f.employee)
	model := replying("ok")

	_, err := New(model, f.tasks, f.users, nil).Reply(context.Background(), f.requester(f.employee), "what's next?")
	require.NoError(t, err)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llm.RoleSystem, model.messages[0].Role)
	assert.Contains(t, model.messages[0].Content, "- Name: John Employee")
	assert.Contains(t, model.messages[0].Content, "#1: Buy milk (TODO, MEDIUM priority, assigned to John Employee)")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "what's next?"}, model.messages[1])
}

func TestAssistant_ReplyUpdatesLastTask(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, "Older", f.admin, f.admin)
	f.createTask(t, "Buy milk", f.admin, f.admin)

	model := replying(`{"action":"update_task","title":"last task","status":"completed"}`)
	got, err := New(model, f.tasks, f.users, nil).Reply(context.Background(), f.requester(f.admin), "mark my last task done")
	require.NoError(t, err)
	assert.Equal(t, `✏️ Task "Buy milk" updated (status: COMPLETED).`, got)
	assert.True(t, strings.Contains(got, "COMPLETED"))
}

func TestAssistant_ReplyErrors(t *testing.T) {
	f := newFixture(t)

	t.Run("blank message", func(t *testing.T) {
		model := replying("unused")
		_, err := New(model, f.tasks, f.users, nil).Reply(context.Background(), f.requester(f.admin), "   ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Zero(t, model.calls)
	})

	t.Run("stream failure discards partial text", func(t *testing.T) {
		boom := errors.New("connection reset")
		model := &scriptedModel{
			chunks: []llm.Chunk{{Content: `{"action":"create_task","title":"Half"}`}},
			err:    boom,
		}
		got, err := New(model, f.tasks, f.users, nil).Reply(context.Background(), f.requester(f.admin), "go")
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, got)
		assert.Empty(t, f.allTasks(t), "no command runs when the stream fails")
	})
}
