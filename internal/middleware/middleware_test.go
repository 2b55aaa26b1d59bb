package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/gurkanbulca/teamtask/internal/config"
	"github.com/gurkanbulca/teamtask/internal/database/dbtest"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
	"github.com/gurkanbulca/teamtask/pkg/auth"
	"github.com/gurkanbulca/teamtask/pkg/security"
)

type authFixture struct {
	authenticator *Authenticator
	tokens        *auth.TokenManager
	logs          *observer.ObservedLogs
	company       *models.Company
	admin         *models.User
	employee      *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := dbtest.Open(t)
	ctx := context.Background()
	companies := repository.NewCompanyRepository(db)
	users := repository.NewUserRepository(db)

	f := &authFixture{
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
		company:  &models.Company{Name: "Acme", Email: "office@acme.com", PasswordHash: "hash"},
		admin:    &models.User{Name: "Alice Admin", Email: "alice@acme.com", PasswordHash: "hash", Role: models.RoleAdmin},
		employee: &models.User{Name: "Bob Builder", Email: "bob@acme.com", PasswordHash: "hash"},
	}
	require.NoError(t, companies.Create(ctx, f.company, f.admin))
	f.employee.CompanyID = f.company.ID
	require.NoError(t, users.Create(ctx, f.employee))

	core, logs := observer.New(zap.DebugLevel)
	f.logs = logs
	f.authenticator = NewAuthenticator(f.tokens, users, companies, zap.New(core))
	return f
}

func (f *authFixture) bearer(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := f.tokens.Generate(u.ID, u.CompanyID, string(u.Role))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticator_Authenticate(t *testing.T) {
	f := newAuthFixture(t)
	other := auth.NewTokenManager("other-secret", time.Hour)
	forged, _, err := other.Generate(f.admin.ID, f.company.ID, "ADMIN")
	require.NoError(t, err)
	ghost, _, err := f.tokens.Generate(uuid.New(), f.company.ID, "ADMIN")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		want    *models.User
		wantMsg string
	}{
		{name: "employee", header: f.bearer(t, f.employee), want: f.employee},
		{name: "lowercase scheme", header: strings.Replace(f.bearer(t, f.admin), "Bearer", "bearer", 1), want: f.admin},
		{name: "no header", header: "", wantMsg: "Access denied. No token provided."},
		{name: "wrong scheme", header: "Basic abc", wantMsg: "Access denied. No token provided."},
		{name: "forged signature", header: "Bearer " + forged, wantMsg: "Invalid token."},
		{name: "deleted user", header: "Bearer " + ghost, wantMsg: "Invalid token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := f.authenticator.Authenticate(context.Background(), tt.header)
			if tt.wantMsg != "" {
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, codes.Unauthenticated, st.Code())
				assert.Equal(t, tt.wantMsg, st.Message())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, req.UserID)
			assert.Equal(t, tt.want.Role, req.Role)
			assert.Equal(t, "Acme", req.CompanyName)
		})
	}

	rejected := f.logs.FilterField(zap.String("event_type", security.EventTypeInvalidToken)).All()
	require.Len(t, rejected, 2)
	assert.Equal(t, zapcore.WarnLevel, rejected[0].Level)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestRequireAuthAndAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, found := RequesterFromContext(r.Context())
		require.True(t, found)
		_, _ = w.Write([]byte(req.Name))
	})
	userRoute := f.authenticator.RequireAuth(ok)
	adminRoute := f.authenticator.RequireAuth(RequireAdmin(ok))

	tests := []struct {
		name     string
		handler  http.Handler
		header   string
		wantCode int
		wantBody string
		wantErr  string
	}{
		{name: "authenticated", handler: userRoute, header: f.bearer(t, f.employee), wantCode: http.StatusOK, wantBody: "Bob Builder"},
		{name: "missing token", handler: userRoute, wantCode: http.StatusUnauthorized, wantErr: "Access denied. No token provided."},
		{name: "garbage token", handler: userRoute, header: "Bearer x.y.z", wantCode: http.StatusUnauthorized, wantErr: "Invalid token."},
		{name: "admin route as admin", handler: adminRoute, header: f.bearer(t, f.admin), wantCode: http.StatusOK, wantBody: "Alice Admin"},
		{name: "admin route as employee", handler: adminRoute, header: f.bearer(t, f.employee), wantCode: http.StatusForbidden, wantErr: "Access denied. Admin only."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, r)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Equal(t, tt.wantErr, decodeError(t, rec))
				return
			}
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRequireAdmin_WithoutAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAdmin(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientInfoHandler(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{name: "remote address", remote: "10.0.0.7:5123", wantIP: "10.0.0.7"},
		{name: "first forwarded hop", remote: "10.0.0.7:5123", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, wantIP: "203.0.113.9"},
		{name: "real ip", remote: "10.0.0.7:5123", headers: map[string]string{"X-Real-IP": "198.51.100.4"}, wantIP: "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIP, gotUA string
			h := ClientInfoHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIP = GetIPAddressFromContext(r.Context())
				gotUA = GetUserAgentFromContext(r.Context())
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			r.Header.Set("User-Agent", "teamtask-test")
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)

			assert.Equal(t, tt.wantIP, gotIP)
			assert.Equal(t, "teamtask-test", gotUA)
		})
	}
}

func TestGetClientInfoFromContext(t *testing.T) {
	req := models.Requester{UserID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleEmployee}
	ctx := WithRequester(withClient(context.Background(), "192.0.2.1", "curl/8"), req)

	info := GetClientInfoFromContext(ctx)
	assert.Equal(t, &ClientInfo{
		IPAddress: "192.0.2.1",
		UserAgent: "curl/8",
		UserID:    req.UserID.String(),
		CompanyID: req.CompanyID.String(),
		UserRole:  "EMPLOYEE",
	}, info)

	assert.Equal(t, &ClientInfo{}, GetClientInfoFromContext(context.Background()))
}

func TestAuthInterceptor_Unary(t *testing.T) {
	f := newAuthFixture(t)
	interceptor := NewAuthInterceptor(f.authenticator).Unary()

	var seen models.Requester
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen, _ = RequesterFromContext(ctx)
		return "ok", nil
	}

	t.Run("public method", func(t *testing.T) {
		resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("protected method without metadata", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/assistant.v1.AssistantService/Chat"}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("protected method with token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", f.bearer(t, f.employee)))
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/assistant.v1.AssistantService/Chat"}, handler)
		require.NoError(t, err)
		assert.Equal(t, f.employee.ID, seen.UserID)
	})
}

func TestMetadataExtractorInterceptor(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("user-agent", "grpc-go/1.75"))
	_, err := NewMetadataExtractorInterceptor().Unary()(ctx, nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			assert.Equal(t, "grpc-go/1.75", GetUserAgentFromContext(ctx))
			assert.Empty(t, GetIPAddressFromContext(ctx))
			return nil, nil
		})
	require.NoError(t, err)
}

func TestValidator(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "valid email", err: v.Email("email", "bob@acme.com")},
		{name: "blank email", err: v.Email("email", " "), wantMsg: "email is required"},
		{name: "malformed email", err: v.Email("adminEmail", "bob@"), wantMsg: "adminEmail has an invalid format"},
		{name: "valid name", err: v.Name("name", "Zoë O'Neil-Smith")},
		{name: "name with digits", err: v.Name("name", "R2D2"), wantMsg: "name contains invalid characters"},
		{name: "long name", err: v.Name("name", strings.Repeat("a", 101)), wantMsg: "name too long (max 100 characters)"},
		{name: "company name allows digits", err: v.CompanyName("7-Eleven")},
		{name: "title required", err: v.Title("  "), wantMsg: "title is required"},
		{name: "long title", err: v.Title(strings.Repeat("t", 201)), wantMsg: "title too long (max 200 characters)"},
		{name: "long description", err: v.Description(strings.Repeat("d", 5001)), wantMsg: "description too long (max 5000 characters)"},
		{name: "comment required", err: v.Comment(""), wantMsg: "content is required"},
		{name: "message length counts runes", err: v.Message(strings.Repeat("é", 4000))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantMsg == "" {
				assert.NoError(t, tt.err)
				return
			}
			require.Error(t, tt.err)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestValidator_Join(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.Join(nil, nil))

	err := v.Join(v.Title(""), nil, v.Comment(""))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "title is required; content is required", st.Message())
}

func TestValidator_Unary(t *testing.T) {
	v := NewValidator(&ValidationConfig{MaxMessageLength: 5})
	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}

	_, err := v.Unary()(context.Background(), wrapperspb.String("too long"), &grpc.UnaryServerInfo{}, handler)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.False(t, called)

	_, err = v.Unary()(context.Background(), wrapperspb.String("ok"), &grpc.UnaryServerInfo{}, handler)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestValidationConfigFrom(t *testing.T) {
	cfg := ValidationConfigFrom(config.ValidationConfig{MaxTitleLength: 50})
	assert.Equal(t, 50, cfg.MaxTitleLength)
	assert.Equal(t, 4000, cfg.MaxMessageLength)
	assert.Equal(t, 255, cfg.MaxEmailLength)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := ClientInfoHandler(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hello"))
	})))

	for _, path := range []string{"/health", "/missing"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = "192.0.2.10:4000"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/health", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(5), entries[0].ContextMap()["bytes"])
	assert.Equal(t, "192.0.2.10", entries[0].ContextMap()["ip"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
}

func TestUnaryLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	interceptor := UnaryLogger(zap.New(core))

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/assistant.v1.AssistantService/Chat"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, status.Error(codes.Internal, "AI service error")
		})
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Internal", entries[0].ContextMap()["code"])
}
