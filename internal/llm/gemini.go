package llm

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// GeminiClient streams chat completions from Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini chat client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Name returns the client name.
func (c *GeminiClient) Name() string {
	return fmt.Sprintf("gemini:%s", c.model)
}

// ChatStream sends system messages as the system instruction and the rest as turns.
func (c *GeminiClient) ChatStream(ctx context.Context, messages []Message) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		contents, config := toGenAI(messages)

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				yield(Chunk{}, fmt.Errorf("gemini stream: %w", err))
				return
			}
			done := len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != ""
			if !yield(Chunk{Content: resp.Text(), Done: done}, nil) {
				return
			}
		}
	}
}

func toGenAI(messages []Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, config
}
