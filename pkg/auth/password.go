// pkg/auth/password.go
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword = errors.New("password does not meet requirements")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PasswordManager handles password hashing and validation
type PasswordManager struct {
	cost           int
	minLength      int
	requireUpper   bool
	requireLower   bool
	requireNumber  bool
	requireSpecial bool
}

// PasswordOption customizes a PasswordManager.
type PasswordOption func(*PasswordManager)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) PasswordOption {
	return func(pm *PasswordManager) { pm.cost = cost }
}

// WithMinLength sets the minimum password length.
func WithMinLength(n int) PasswordOption {
	return func(pm *PasswordManager) { pm.minLength = n }
}

// WithRequireUpper toggles the uppercase letter rule.
func WithRequireUpper(b bool) PasswordOption {
	return func(pm *PasswordManager) { pm.requireUpper = b }
}

// WithRequireSpecial toggles the special character rule.
func WithRequireSpecial(b bool) PasswordOption {
	return func(pm *PasswordManager) { pm.requireSpecial = b }
}

// NewPasswordManager creates a new password manager with default settings
func NewPasswordManager(opts ...PasswordOption) *PasswordManager {
	pm := &PasswordManager{
		cost:           12,
		minLength:      8,
		requireUpper:   false,
		requireLower:   true,
		requireNumber:  true,
		requireSpecial: false,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// HashPassword validates and hashes a password using bcrypt
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	// Validate password strength
	if err := pm.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// ComparePassword compares a password with a hash
func (pm *PasswordManager) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword checks if a password meets the requirements
func (pm *PasswordManager) ValidatePassword(password string) error {
	if len(password) < pm.minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrWeakPassword, pm.minLength)
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if pm.requireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if pm.requireLower && !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if pm.requireNumber && !hasNumber {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}
	if pm.requireSpecial && !hasSpecial {
		return fmt.Errorf("%w: must contain at least one special character", ErrWeakPassword)
	}

	return nil
}

// ValidateEmail validates an email address format
func ValidateEmail(email string) error {
	if len(email) > 255 {
		return errors.New("email address too long")
	}

	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}

	return nil
}
