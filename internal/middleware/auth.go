// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/pkg/auth"
	"github.com/gurkanbulca/teamtask/pkg/security"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid token."
	msgAdminOnly    = "Access denied. Admin only."
)

// UserLookup finds a user by id regardless of company.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CompanyLookup finds a company by id.
type CompanyLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// Authenticator turns a bearer token into the Requester it belongs to. The
// token only names the user; role and company are read from the store so a
// deleted user or company loses access immediately.
type Authenticator struct {
	tokens    *auth.TokenManager
	users     UserLookup
	companies CompanyLookup
	logger    *zap.Logger
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(tokens *auth.TokenManager, users UserLookup, companies CompanyLookup, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		tokens:    tokens,
		users:     users,
		companies: companies,
		logger:    logger,
	}
}

// Authenticate resolves an Authorization header value. Failures are
// Unauthenticated status errors.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (models.Requester, error) {
	if authHeader == "" {
		return models.Requester{}, status.Error(codes.Unauthenticated, msgNoToken)
	}

	token, err := auth.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return models.Requester{}, status.Error(codes.Unauthenticated, msgNoToken)
	}

	claims, err := a.tokens.Validate(token)
	if err != nil {
		a.reject(ctx, err.Error())
		return models.Requester{}, status.Error(codes.Unauthenticated, msgInvalidToken)
	}

	// Validate already checked the id is a UUID
	userID := uuid.MustParse(claims.UserID)
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		a.reject(ctx, "user not found")
		return models.Requester{}, status.Error(codes.Unauthenticated, msgInvalidToken)
	}

	company, err := a.companies.GetByID(ctx, user.CompanyID)
	if err != nil {
		a.reject(ctx, "company not found")
		return models.Requester{}, status.Error(codes.Unauthenticated, msgInvalidToken)
	}

	return models.Requester{
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		CompanyID:   company.ID,
		CompanyName: company.Name,
	}, nil
}

func (a *Authenticator) reject(ctx context.Context, reason string) {
	level, _ := security.LogLevel(security.SeverityMedium)
	a.logger.Log(level, "authentication rejected",
		zap.String("event_type", security.EventTypeInvalidToken),
		zap.String("reason", reason),
		zap.String("ip_address", GetIPAddressFromContext(ctx)),
	)
}

// RequireAuth rejects HTTP requests without a valid token and stores the
// Requester on the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, status.Convert(err).Message())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), req)))
	})
}

// RequireAdmin must run inside RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := RequesterFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, msgNoToken)
			return
		}
		if !req.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, msgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AuthInterceptor provides authentication middleware for gRPC
type AuthInterceptor struct {
	authenticator *Authenticator
	publicMethods map[string]bool
}

// NewAuthInterceptor creates a new auth interceptor
func NewAuthInterceptor(authenticator *Authenticator) *AuthInterceptor {
	// Define which methods don't require authentication
	publicMethods := map[string]bool{
		"/grpc.health.v1.Health/Check":                                   true,
		"/grpc.health.v1.Health/Watch":                                   true,
		"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      true,
		"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": true,
	}

	return &AuthInterceptor{
		authenticator: authenticator,
		publicMethods: publicMethods,
	}
}

// Unary returns a unary server interceptor for authentication
func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if a.publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		newCtx, err := a.authenticate(ctx)
		if err != nil {
			return nil, err
		}

		return handler(newCtx, req)
	}
}

// Stream returns a stream server interceptor for authentication
func (a *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if a.publicMethods[info.FullMethod] {
			return handler(srv, stream)
		}

		newCtx, err := a.authenticate(stream.Context())
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: stream,
			ctx:          newCtx,
		})
	}
}

// authenticate extracts and validates the JWT token from metadata
func (a *AuthInterceptor) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return nil, status.Error(codes.Unauthenticated, msgNoToken)
	}

	req, err := a.authenticator.Authenticate(ctx, authHeaders[0])
	if err != nil {
		return nil, err
	}

	return WithRequester(ctx, req), nil
}
