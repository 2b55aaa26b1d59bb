package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/gurkanbulca/teamtask/internal/assistant"
	"github.com/gurkanbulca/teamtask/internal/middleware"
)

const (
	msgMessageRequired = "Message is required"
	msgAIServiceError  = "AI service error"
)

// ChatService runs chat messages through the assistant for the
// authenticated requester. It backs both the HTTP endpoint and the gRPC
// AssistantService.
type ChatService struct {
	assistant *assistant.Assistant
	validator *middleware.Validator
	logger    *zap.Logger
}

func NewChatService(a *assistant.Assistant, validator *middleware.Validator, logger *zap.Logger) *ChatService {
	return &ChatService{
		assistant: a,
		validator: validator,
		logger:    nopIfNil(logger),
	}
}

// Chat returns the assistant's reply to message. Model failures surface as
// an Internal "AI service error" without details.
func (s *ChatService) Chat(ctx context.Context, message string) (string, error) {
	req, err := requester(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", status.Error(codes.InvalidArgument, msgMessageRequired)
	}
	if err := s.validator.Join(s.validator.Message(message)); err != nil {
		return "", err
	}

	reply, err := s.assistant.Reply(ctx, req, message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		return "", status.Error(codes.InvalidArgument, msgMessageRequired)
	case errors.Is(err, context.Canceled):
		return "", status.FromContextError(err).Err()
	case err != nil:
		s.logger.Error("assistant reply failed",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
		return "", status.Error(codes.Internal, msgAIServiceError)
	}
	return reply, nil
}

// AssistantServiceServer is the server API of assistant.v1.AssistantService.
type AssistantServiceServer interface {
	Chat(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// AssistantChatMethod is the full gRPC method name of AssistantService.Chat.
const AssistantChatMethod = "/assistant.v1.AssistantService/Chat"

// AssistantServiceDesc describes assistant.v1.AssistantService. The service
// exchanges well-known wrapper messages so it needs no generated code.
var AssistantServiceDesc = grpc.ServiceDesc{
	ServiceName: "assistant.v1.AssistantService",
	HandlerType: (*AssistantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Chat",
			Handler:    assistantChatHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "assistant/v1/assistant.proto",
}

func assistantChatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServiceServer).Chat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AssistantChatMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AssistantServiceServer).Chat(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterAssistantServiceServer registers srv on s.
func RegisterAssistantServiceServer(s grpc.ServiceRegistrar, srv AssistantServiceServer) {
	s.RegisterService(&AssistantServiceDesc, srv)
}

// AssistantServer exposes ChatService over gRPC.
type AssistantServer struct {
	chat *ChatService
}

func NewAssistantServer(chat *ChatService) *AssistantServer {
	return &AssistantServer{chat: chat}
}

func (s *AssistantServer) Chat(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	reply, err := s.chat.Chat(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(reply), nil
}

// AssistantClient calls assistant.v1.AssistantService.
type AssistantClient struct {
	cc grpc.ClientConnInterface
}

func NewAssistantClient(cc grpc.ClientConnInterface) *AssistantClient {
	return &AssistantClient{cc: cc}
}

func (c *AssistantClient) Chat(ctx context.Context, message string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, AssistantChatMethod, wrapperspb.String(message), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
