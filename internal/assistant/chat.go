package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/llm"
	"github.com/gurkanbulca/teamtask/internal/models"
)

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message is required")

// Assistant answers one chat message per call.
type Assistant struct {
	model      llm.ChatModel
	builder    *ContextBuilder
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func New(model llm.ChatModel, tasks TaskStore, users UserDirectory, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		model:      model,
		builder:    NewContextBuilder(tasks),
		dispatcher: NewDispatcher(tasks, users, logger),
		logger:     logger,
	}
}

// Reply grounds the model in the requester's recent tasks, streams its
// answer and applies any commands found in it. With commands the reply is
// their joined results; without, it is the model text, or empty when that
// text is nothing but JSON. A model or stream failure returns an error and
// no partial text.
func (a *Assistant) Reply(ctx context.Context, req models.Requester, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	session, err := a.builder.Build(ctx, req)
	if err != nil {
		return "", err
	}
	prompt, err := session.SystemPrompt()
	if err != nil {
		return "", err
	}

	text, err := llm.Collect(a.model.ChatStream(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: message},
	}))
	if err != nil {
		return "", fmt.Errorf("chat model: %w", err)
	}
	text = strings.TrimSpace(text)

	raws := Extract(text)
	if len(raws) == 0 {
		if IsPureJSON(text) {
			return "", nil
		}
		return text, nil
	}

	cmds := DecodeAll(raws)
	a.logger.Debug("dispatching assistant commands",
		zap.String("user_id", req.UserID.String()),
		zap.Int("count", len(cmds)),
	)
	return strings.Join(a.dispatcher.Dispatch(ctx, session, cmds), "\n"), nil
}
