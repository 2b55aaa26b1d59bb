// Package api exposes the services as a JSON HTTP API under /api.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/service"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidBody   = "Invalid request body"
	msgInternalError = "Internal server error"
	msgRouteNotFound = "Route not found"
)

// Services groups the handlers' dependencies.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Tasks    *service.TaskService
	Comments *service.CommentService
	Chat     *service.ChatService
}

// Server is the HTTP API server.
type Server struct {
	services      Services
	authenticator *middleware.Authenticator
	logger        *zap.Logger
	mux           *http.ServeMux
	handler       http.Handler
}

// New creates a new Server.
func New(services Services, authenticator *middleware.Authenticator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		services:      services,
		authenticator: authenticator,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.routes()
	s.handler = middleware.ClientInfoHandler(middleware.RequestLogger(logger)(s.mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Auth
	s.mux.HandleFunc("POST /api/auth/register-company", s.handleRegisterCompany)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.Handle("POST /api/auth/register", s.admin(s.handleRegisterUser))
	s.mux.Handle("GET /api/auth/me", s.user(s.handleMe))
	s.mux.Handle("DELETE /api/auth/company", s.admin(s.handleDeleteCompany))

	// Users
	s.mux.Handle("GET /api/users/employees", s.user(s.handleEmployeeList))
	s.mux.Handle("GET /api/users", s.admin(s.handleUserList))
	s.mux.Handle("GET /api/users/{id}", s.admin(s.handleUserGet))
	s.mux.Handle("POST /api/users", s.admin(s.handleEmployeeCreate))
	s.mux.Handle("DELETE /api/users/{id}", s.admin(s.handleEmployeeDelete))

	// Tasks
	s.mux.Handle("GET /api/tasks", s.user(s.handleTaskList))
	s.mux.Handle("POST /api/tasks", s.user(s.handleTaskCreate))
	s.mux.Handle("GET /api/tasks/{id}", s.user(s.handleTaskGet))
	s.mux.Handle("PUT /api/tasks/{id}", s.user(s.handleTaskUpdate))
	s.mux.Handle("DELETE /api/tasks/{id}", s.user(s.handleTaskDelete))
	s.mux.Handle("POST /api/tasks/{id}/subtasks", s.user(s.handleSubtaskCreate))
	s.mux.Handle("PATCH /api/tasks/{id}/status", s.user(s.handleTaskStatus))
	s.mux.Handle("PATCH /api/tasks/{id}/priority", s.user(s.handleTaskPriority))

	// Comments
	s.mux.Handle("GET /api/tasks/{id}/comments", s.user(s.handleCommentList))
	s.mux.Handle("POST /api/tasks/{id}/comments", s.user(s.handleCommentCreate))
	s.mux.Handle("PUT /api/comments/{id}", s.user(s.handleCommentUpdate))
	s.mux.Handle("DELETE /api/comments/{id}", s.user(s.handleCommentDelete))

	// AI
	s.mux.Handle("POST /api/ai/chat", s.user(s.handleChat))

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgRouteNotFound)
	})
}

func (s *Server) user(h http.HandlerFunc) http.Handler {
	return s.authenticator.RequireAuth(h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return s.authenticator.RequireAuth(middleware.RequireAdmin(h))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// respond writes v with code, or the HTTP rendering of err.
func (s *Server) respond(w http.ResponseWriter, code int, v any, err error) {
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, code, v)
}

// writeServiceError maps a service status error onto an HTTP status. Errors
// that are not status errors never reach the client.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		s.logger.Error("unexpected handler error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	code := httpStatus(st.Code())
	msg := st.Message()
	if code == http.StatusInternalServerError && st.Code() != codes.Internal {
		msg = msgInternalError
	}
	writeError(w, code, msg)
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
