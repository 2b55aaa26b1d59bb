package assistant

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []RawCommand
	}{
		{
			name: "single object",
			text: `{"action":"create_task","title":"Buy milk"}`,
			want: []RawCommand{{"action": "create_task", "title": "Buy milk"}},
		},
		{
			name: "object surrounded by prose",
			text: "Sure! I'll add that.\n{ \"action\": \"delete_task\", \"title\": \"Old report\" }\nDone.",
			want: []RawCommand{{"action": "delete_task", "title": "Old report"}},
		},
		{
			name: "fenced array keeps order",
			text: "```json\n[\n  {\"action\":\"create_task\",\"title\":\"A\"},\n  {\"action\":\"delete_task\",\"title\":\"B\"}\n]\n```",
			want: []RawCommand{
				{"action": "create_task", "title": "A"},
				{"action": "delete_task", "title": "B"},
			},
		},
		{
			name: "objects back to back",
			text: `{"action":"update_task","title":"A","status":"done"}{"action":"list_tasks"}`,
			want: []RawCommand{
				{"action": "update_task", "title": "A", "status": "done"},
				{"action": "list_tasks"},
			},
		},
		{
			name: "nested filter object",
			text: `Here you go: { "action": "list_tasks", "filter": { "status": "TODO" } }`,
			want: []RawCommand{
				{"action": "list_tasks", "filter": map[string]any{"status": "TODO"}},
			},
		},
		{
			name: "malformed objects are dropped",
			text: `{not json} and then {"action":"delete_task","title":"X"} and {"broken":}`,
			want: []RawCommand{{"action": "delete_task", "title": "X"}},
		},
		{
			name: "array of non-objects falls through to object scan",
			text: `Steps [1, 2] then {"action":"list_tasks"}`,
			want: []RawCommand{{"action": "list_tasks"}},
		},
		{
			name: "empty array",
			text: `[]`,
			want: []RawCommand{},
		},
		{
			name: "no json at all",
			text: "You have three tasks due this week.",
			want: []RawCommand{},
		},
		{
			name: "unclosed brace",
			text: `{"action":"create_task"`,
			want: []RawCommand{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_ReserializesToEmbeddedObject(t *testing.T) {
	embedded := `{"action":"create_task","assignee":"John Employee","description":"weekly","priority":"high","title":"Report"}`
	got := Extract("Okay, creating it now:\n" + embedded + "\nLet me know if you need more.")
	require.Len(t, got, 1)

	out, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.JSONEq(t, embedded, string(out))
}

func TestIsPureJSON(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{`{"action":"unknown"}`, true},
		{"  {\n\"a\": 1\n}  ", true},
		{`[{"action":"x"}]`, true},
		{"[\n1,\n2\n]", true},
		{`{not json}`, true},
		{`Sure: {"a":1}`, false},
		{`{"a":1} thanks`, false},
		{"plain text", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPureJSON(tt.text), "IsPureJSON(%q)", tt.text)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCommand
		want Command
	}{
		{
			name: "create",
			raw:  RawCommand{"action": "create_task", "title": "T", "description": "D", "assignee": "John", "priority": "high"},
			want: CreateTask{Title: "T", Description: "D", Assignee: "John", Priority: "high"},
		},
		{
			name: "delete",
			raw:  RawCommand{"action": "delete_task", "title": "T", "extra": true},
			want: DeleteTask{Title: "T"},
		},
		{
			name: "update ignores non-string fields",
			raw:  RawCommand{"action": "update_task", "title": "T", "status": 3, "priority": "low"},
			want: UpdateTask{Title: "T", Priority: "low"},
		},
		{
			name: "list with filter",
			raw:  RawCommand{"action": "list_tasks", "filter": map[string]any{"status": "todo", "assignee": "John"}},
			want: ListTasks{Status: "todo", Assignee: "John"},
		},
		{
			name: "list with malformed filter",
			raw:  RawCommand{"action": "list_tasks", "filter": "everything"},
			want: ListTasks{},
		},
		{
			name: "unknown action",
			raw:  RawCommand{"action": "archive_task"},
			want: Unknown{Name: "archive_task"},
		},
		{
			name: "missing action",
			raw:  nil,
			want: Unknown{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
