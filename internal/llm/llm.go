// Package llm talks to streaming chat-completion models.
package llm

import (
	"context"
	"iter"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chunk is one increment of a streamed reply. Done marks the model's final chunk.
type Chunk struct {
	Content string
	Done    bool
}

// ChatModel streams a reply to a conversation. An error yielded by the
// sequence ends the stream.
type ChatModel interface {
	ChatStream(ctx context.Context, messages []Message) iter.Seq2[Chunk, error]
}

// Collect folds a chunk stream into the full reply text. It stops at the
// first chunk marked Done or when the stream ends, whichever comes first,
// so the reply is produced exactly once. Any stream error discards the
// partial text.
func Collect(stream iter.Seq2[Chunk, error]) (string, error) {
	var reply strings.Builder
	for chunk, err := range stream {
		if err != nil {
			return "", err
		}
		reply.WriteString(chunk.Content)
		if chunk.Done {
			break
		}
	}
	return reply.String(), nil
}
