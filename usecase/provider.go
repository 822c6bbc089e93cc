package usecase

import (
	"context"
	"time"

	"github.com/shopcore/backend/domain"
)

// LoginInput carries plaintext credentials. The login field matches username
// or email with a case-sensitive exact comparison.
type LoginInput struct {
	Login    string
	Password string
}

// LoginResult is handed back to whatever front-end called in.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.Identity `json:"user"`
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// AuthProvider is the single capability-set interface every front-end depends
// on instead of a concrete service.
type AuthProvider interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (*domain.Identity, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
}

// SessionValidator is the subset middleware needs.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*domain.Identity, error)
}
