// internal/middleware/validation.go
package middleware

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/gurkanbulca/teamtask/internal/config"
	"github.com/gurkanbulca/teamtask/pkg/auth"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxEmailLength       int
	MaxNameLength        int
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxCommentLength     int
	MaxMessageLength     int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxEmailLength:       255,
		MaxNameLength:        100,
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
		MaxCommentLength:     5000,
		MaxMessageLength:     4000,
	}
}

// ValidationConfigFrom copies the configured limits, keeping defaults for
// any left at zero.
func ValidationConfigFrom(cfg config.ValidationConfig) *ValidationConfig {
	v := DefaultValidationConfig()
	if cfg.MaxNameLength > 0 {
		v.MaxNameLength = cfg.MaxNameLength
	}
	if cfg.MaxTitleLength > 0 {
		v.MaxTitleLength = cfg.MaxTitleLength
	}
	if cfg.MaxDescriptionLength > 0 {
		v.MaxDescriptionLength = cfg.MaxDescriptionLength
	}
	if cfg.MaxCommentLength > 0 {
		v.MaxCommentLength = cfg.MaxCommentLength
	}
	if cfg.MaxMessageLength > 0 {
		v.MaxMessageLength = cfg.MaxMessageLength
	}
	return v
}

// Names may contain letters, spaces, apostrophes, periods and hyphens.
var nameRegex = regexp.MustCompile(`^[\p{L}\s'.-]+$`)

// Validator checks request fields against the configured limits. Each check
// returns a plain error; Join folds them into one InvalidArgument status.
type Validator struct {
	config *ValidationConfig
}

// NewValidator creates a new validator
func NewValidator(cfg *ValidationConfig) *Validator {
	if cfg == nil {
		cfg = DefaultValidationConfig()
	}
	return &Validator{config: cfg}
}

// Join returns nil when every err is nil, otherwise an InvalidArgument
// status listing the failures separated by "; ".
func (v *Validator) Join(errs ...error) error {
	var messages []string
	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return status.Error(codes.InvalidArgument, strings.Join(messages, "; "))
}

func (v *Validator) Email(field, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(email) > v.config.MaxEmailLength {
		return fmt.Errorf("%s too long (max %d characters)", field, v.config.MaxEmailLength)
	}
	if err := auth.ValidateEmail(email); err != nil {
		return fmt.Errorf("%s has an invalid format", field)
	}
	return nil
}

func (v *Validator) Name(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(name) > v.config.MaxNameLength {
		return fmt.Errorf("%s too long (max %d characters)", field, v.config.MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

// CompanyName allows digits and punctuation that person names do not.
func (v *Validator) CompanyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > v.config.MaxNameLength {
		return fmt.Errorf("name too long (max %d characters)", v.config.MaxNameLength)
	}
	return nil
}

func (v *Validator) Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > v.config.MaxTitleLength {
		return fmt.Errorf("title too long (max %d characters)", v.config.MaxTitleLength)
	}
	return nil
}

func (v *Validator) Description(description string) error {
	if utf8.RuneCountInString(description) > v.config.MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d characters)", v.config.MaxDescriptionLength)
	}
	return nil
}

func (v *Validator) Comment(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(content) > v.config.MaxCommentLength {
		return fmt.Errorf("content too long (max %d characters)", v.config.MaxCommentLength)
	}
	return nil
}

// Message checks a chat message. Blank messages are the caller's concern.
func (v *Validator) Message(message string) error {
	if utf8.RuneCountInString(message) > v.config.MaxMessageLength {
		return fmt.Errorf("message too long (max %d characters)", v.config.MaxMessageLength)
	}
	return nil
}

// Unary returns a unary server interceptor that bounds chat messages.
func (v *Validator) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if msg, ok := req.(*wrapperspb.StringValue); ok {
			if err := v.Join(v.Message(msg.GetValue())); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}
