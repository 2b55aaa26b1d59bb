package service

import (
	"context"
	"errors"
	"iter"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gurkanbulca/teamtask/internal/assistant"
	"github.com/gurkanbulca/teamtask/internal/llm"
	"github.com/gurkanbulca/teamtask/internal/middleware"
)

// cannedModel answers every conversation with reply, or fails with err.
type cannedModel struct {
	reply string
	err   error
}

func (m cannedModel) ChatStream(context.Context, []llm.Message) iter.Seq2[llm.Chunk, error] {
	return func(yield func(llm.Chunk, error) bool) {
		if m.err != nil {
			yield(llm.Chunk{}, m.err)
			return
		}
		yield(llm.Chunk{Content: m.reply, Done: true}, nil)
	}
}

func (a *acme) ChatService(model llm.ChatModel) *ChatService {
	return NewChatService(assistant.New(model, a.tasks, a.users, nil), a.validator, nil)
}

func TestChatService_Chat(t *testing.T) {
	tests := []struct {
		name    string
		model   cannedModel
		message string
		want    string
		code    codes.Code
		msg     string
	}{
		{
			name:    "plain reply",
			model:   cannedModel{reply: "Hello Bob!"},
			message: "hi",
			want:    "Hello Bob!",
		},
		{
			name:    "command reply",
			model:   cannedModel{reply: `{"action":"create_task","title":"Order shingles","assignee":"Carol Coder"}`},
			message: "ask carol to order shingles",
			want:    `✅ Task "Order shingles" created and assigned to Carol Coder.`,
		},
		{
			name:    "blank message",
			model:   cannedModel{reply: "unused"},
			message: " \n ",
			code:    codes.InvalidArgument,
			msg:     "Message is required",
		},
		{
			name:    "message too long",
			model:   cannedModel{reply: "unused"},
			message: strings.Repeat("a", 4001),
			code:    codes.InvalidArgument,
		},
		{
			name:    "model failure hides details",
			model:   cannedModel{err: errors.New("dial tcp 127.0.0.1:11434: connection refused")},
			message: "hi",
			code:    codes.Internal,
			msg:     "AI service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAcme(t)
			got, err := a.ChatService(tt.model).Chat(a.Context(a.bob), tt.message)
			if tt.code != codes.OK {
				assertCode(t, err, tt.code, tt.msg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChatService_RequiresRequester(t *testing.T) {
	a := newAcme(t)
	_, err := a.ChatService(cannedModel{reply: "hi"}).Chat(context.Background(), "hi")
	assertCode(t, err, codes.Unauthenticated, "")
}

// startAssistantServer serves the assistant over an in-memory listener with
// the production interceptor chain.
func startAssistantServer(t *testing.T, a *acme, model llm.ChatModel) *AssistantClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	authenticator := middleware.NewAuthenticator(a.tokenManager, a.users, a.companies, nil)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.NewMetadataExtractorInterceptor().Unary(),
		a.validator.Unary(),
		middleware.NewAuthInterceptor(authenticator).Unary(),
	))
	RegisterAssistantServiceServer(server, NewAssistantServer(a.ChatService(model)))

	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewAssistantClient(conn)
}

func TestAssistantServer_OverGRPC(t *testing.T) {
	a := newAcme(t)
	a.CreateTask("Fix roof", a.admin, a.bob, nil)
	client := startAssistantServer(t, a, cannedModel{reply: `{"action":"list_tasks","filter":{"assignee":"Bob Builder"}}`})

	token, _, err := a.tokenManager.Generate(a.bob.ID, a.bob.CompanyID, string(a.bob.Role))
	require.NoError(t, err)

	t.Run("authenticated", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
		got, err := client.Chat(ctx, "what is bob doing?")
		require.NoError(t, err)
		assert.Equal(t, "Tasks:\n- Fix roof (TODO, MEDIUM)", got)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := client.Chat(context.Background(), "hi")
		assertCode(t, err, codes.Unauthenticated, "Access denied. No token provided.")
	})

	t.Run("bad token", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope")
		_, err := client.Chat(ctx, "hi")
		assertCode(t, err, codes.Unauthenticated, "Invalid token.")
	})

	t.Run("oversized message is rejected before authentication", func(t *testing.T) {
		_, err := client.Chat(context.Background(), strings.Repeat("a", 4001))
		assertCode(t, err, codes.InvalidArgument, "message too long (max 4000 characters)")
	})
}
