package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrInvalidInput       = errors.New("invalid input")
	ErrFederatedDisabled  = errors.New("federated sign-in is not configured")
)

// Identity is the profile of an authenticated user. IsAdmin is only ever
// changed out of band.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
	IsAdmin     bool
	CreatedAt   time.Time
}

// Credential is an email/password login bound to an identity.
type Credential struct {
	Email        string
	PasswordHash string
	IdentityID   string
	CreatedAt    time.Time
}

// Session is what a successful sign-in returns to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *Identity
}

// FederatedClaims are the verified claims of an external ID token.
type FederatedClaims struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
	Picture string
}

type ProfileRepository interface {
	Get(ctx context.Context, id string) (*Identity, error)
	// CreateIfAbsent inserts the profile unless one with the same ID exists,
	// and returns the stored profile.
	CreateIfAbsent(ctx context.Context, identity *Identity) (*Identity, bool, error)
	SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*Identity, error)
}

type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
}

// TokenRevoker keeps revoked token ids until their natural expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// FederatedVerifier validates ID tokens issued by an external provider.
type FederatedVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedClaims, error)
}
