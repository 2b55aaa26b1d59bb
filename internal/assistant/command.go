// Package assistant turns chat messages into task commands: it grounds a
// language model in the requester's recent work, scrapes command objects out
// of the reply and applies them to the task store.
package assistant

import "strings"

// Action discriminates the kinds of command a model can emit.
type Action string

const (
	ActionCreateTask Action = "create_task"
	ActionDeleteTask Action = "delete_task"
	ActionUpdateTask Action = "update_task"
	ActionListTasks  Action = "list_tasks"
)

// RawCommand is a command object exactly as it was decoded from model output.
type RawCommand map[string]any

// Command is one decoded instruction. The concrete types are CreateTask,
// DeleteTask, UpdateTask, ListTasks and Unknown.
type Command interface {
	Action() Action
	command()
}

type CreateTask struct {
	Title       string
	Description string
	Assignee    string
	Priority    string
}

type DeleteTask struct {
	Title string
}

type UpdateTask struct {
	Title    string
	Status   string
	Priority string
}

type ListTasks struct {
	Status   string
	Priority string
	Assignee string
}

// Unknown carries an action the dispatcher does not handle.
type Unknown struct {
	Name string
}

func (CreateTask) Action() Action { return ActionCreateTask }
func (DeleteTask) Action() Action { return ActionDeleteTask }
func (UpdateTask) Action() Action { return ActionUpdateTask }
func (ListTasks) Action() Action  { return ActionListTasks }
func (u Unknown) Action() Action  { return Action(u.Name) }

func (CreateTask) command() {}
func (DeleteTask) command() {}
func (UpdateTask) command() {}
func (ListTasks) command()  {}
func (Unknown) command()    {}

// Decode maps a raw command onto its typed form. Fields of the wrong JSON
// type are treated as absent, and unrecognised fields are ignored.
func Decode(raw RawCommand) Command {
	action := stringField(raw, "action")

	switch Action(action) {
	case ActionCreateTask:
		return CreateTask{
			Title:       stringField(raw, "title"),
			Description: stringField(raw, "description"),
			Assignee:    stringField(raw, "assignee"),
			Priority:    stringField(raw, "priority"),
		}
	case ActionDeleteTask:
		return DeleteTask{Title: stringField(raw, "title")}
	case ActionUpdateTask:
		return UpdateTask{
			Title:    stringField(raw, "title"),
			Status:   stringField(raw, "status"),
			Priority: stringField(raw, "priority"),
		}
	case ActionListTasks:
		filter, _ := raw["filter"].(map[string]any)
		return ListTasks{
			Status:   stringField(filter, "status"),
			Priority: stringField(filter, "priority"),
			Assignee: stringField(filter, "assignee"),
		}
	default:
		return Unknown{Name: action}
	}
}

// DecodeAll decodes raw commands, preserving order.
func DecodeAll(raws []RawCommand) []Command {
	cmds := make([]Command, 0, len(raws))
	for _, raw := range raws {
		cmds = append(cmds, Decode(raw))
	}
	return cmds
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// mentions reports whether title refers to phrase, ignoring case.
func mentions(title, phrase string) bool {
	return strings.Contains(strings.ToLower(title), phrase)
}
