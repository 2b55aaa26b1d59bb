package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// OLLAMA CHAT CLIENT
// =============================================================================

// OllamaClient streams chat completions from a local Ollama server.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaClient creates a client for endpoint. A zero timeout leaves the
// request bounded only by its context.
func NewOllamaClient(endpoint, model string, timeout time.Duration) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "gemma3"
	}

	return &OllamaClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the client name.
func (c *OllamaClient) Name() string {
	return fmt.Sprintf("ollama:%s", c.model)
}

// ChatStream posts the conversation to /api/chat and yields each NDJSON chunk.
// Lines that are not valid JSON are skipped.
func (c *OllamaClient) ChatStream(ctx context.Context, messages []Message) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		body, err := json.Marshal(ollamaChatRequest{
			Model:    c.model,
			Messages: messages,
			Stream:   true,
		})
		if err != nil {
			yield(Chunk{}, fmt.Errorf("failed to marshal request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
		if err != nil {
			yield(Chunk{}, fmt.Errorf("failed to create request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/x-ndjson")

		resp, err := c.client.Do(req)
		if err != nil {
			yield(Chunk{}, fmt.Errorf("ollama request failed: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			yield(Chunk{}, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk ollamaChatChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				yield(Chunk{}, fmt.Errorf("ollama error: %s", chunk.Error))
				return
			}

			if !yield(Chunk{Content: chunk.Message.Content, Done: chunk.Done}, nil) {
				return
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Chunk{}, fmt.Errorf("read ollama stream: %w", err))
		}
	}
}

// =============================================================================
// OLLAMA API TYPES
// =============================================================================

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatChunk struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}
