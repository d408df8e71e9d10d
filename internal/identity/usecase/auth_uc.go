package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthUsecase signs users in and resolves session tokens to identities.
type AuthUsecase struct {
	profiles  domain.ProfileRepository
	creds     domain.CredentialRepository
	revoker   domain.TokenRevoker
	federated domain.FederatedVerifier
	tokens    *TokenIssuer
	cache     *expirable.LRU[string, *domain.Identity]
	hashCost  int
	now       func() time.Time
	logger    *logger.Logger
}

// NewAuthUsecase creates the usecase. federated may be nil, which disables
// federated sign-in. Resolved identities are cached for cacheTTL so a changed
// admin flag takes effect within that window.
func NewAuthUsecase(
	profiles domain.ProfileRepository,
	creds domain.CredentialRepository,
	revoker domain.TokenRevoker,
	federated domain.FederatedVerifier,
	tokens *TokenIssuer,
	cacheSize int,
	cacheTTL time.Duration,
	log *logger.Logger,
) *AuthUsecase {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &AuthUsecase{
		profiles:  profiles,
		creds:     creds,
		revoker:   revoker,
		federated: federated,
		tokens:    tokens,
		cache:     expirable.NewLRU[string, *domain.Identity](cacheSize, nil, cacheTTL),
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
		logger:    log.Named("AuthUsecase"),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}
	return email, nil
}

// SignUp registers an email/password credential and its profile.
func (uc *AuthUsecase) SignUp(ctx context.Context, email, password, displayName string) (*domain.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := uc.now().UTC()
	cred := &domain.Credential{
		Email:        email,
		PasswordHash: string(hash),
		IdentityID:   uuid.NewString(),
		CreatedAt:    now,
	}
	if err := uc.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			uc.logger.Info("Sign up with taken email", zap.String("email", email))
			return nil, domain.ErrEmailTaken
		}
		uc.logger.Error("Failed to store credential", zap.Error(err))
		return nil, fmt.Errorf("store credential: %w", err)
	}

	identity, err := uc.provision(ctx, &domain.Identity{
		ID:          cred.IdentityID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("User signed up", zap.String("user_id", identity.ID))
	return uc.issue(identity)
}

// SignIn checks an email/password pair. The profile is created on first
// sign-in if it does not exist yet.
func (uc *AuthUsecase) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := uc.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		uc.logger.Info("Wrong password", zap.String("user_id", cred.IdentityID))
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := uc.provision(ctx, &domain.Identity{
		ID:        cred.IdentityID,
		Email:     cred.Email,
		CreatedAt: uc.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("User signed in", zap.String("user_id", identity.ID))
	return uc.issue(identity)
}

// SignInFederated exchanges an external ID token for a session.
func (uc *AuthUsecase) SignInFederated(ctx context.Context, idToken string) (*domain.Session, error) {
	if uc.federated == nil {
		return nil, domain.ErrFederatedDisabled
	}
	claims, err := uc.federated.Verify(ctx, idToken)
	if err != nil {
		uc.logger.Warn("Federated token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	identity, err := uc.provision(ctx, &domain.Identity{
		ID:          FederatedIdentityID(claims.Issuer, claims.Subject),
		Email:       strings.ToLower(claims.Email),
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
		CreatedAt:   uc.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("User signed in with federated provider", zap.String("user_id", identity.ID), zap.String("issuer", claims.Issuer))
	return uc.issue(identity)
}

// FederatedIdentityID derives the stable identifier of an external account.
func FederatedIdentityID(issuer, subject string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(issuer+"#"+subject)).String()
}

// SignOut revokes the token until it would have expired anyway.
func (uc *AuthUsecase) SignOut(ctx context.Context, token string) error {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(uc.now())
	if ttl <= 0 {
		return nil
	}
	if err := uc.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		uc.logger.Error("Failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
		return fmt.Errorf("revoke token: %w", err)
	}
	uc.logger.Info("User signed out", zap.String("user_id", claims.UserID))
	return nil
}

// Authenticate resolves a session token to the current identity.
func (uc *AuthUsecase) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := uc.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	if identity, ok := uc.cache.Get(claims.UserID); ok {
		return identity, nil
	}
	identity, err := uc.profiles.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", domain.ErrInvalidToken)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	uc.cache.Add(identity.ID, identity)
	return identity, nil
}

func (uc *AuthUsecase) Profile(ctx context.Context, id string) (*domain.Identity, error) {
	return uc.profiles.Get(ctx, id)
}

// SetAdmin grants or revokes administrator rights. Operator tooling only.
func (uc *AuthUsecase) SetAdmin(ctx context.Context, email string, isAdmin bool) (*domain.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	identity, err := uc.profiles.SetAdminByEmail(ctx, email, isAdmin)
	if err != nil {
		return nil, err
	}
	uc.cache.Remove(identity.ID)
	uc.logger.Info("Admin flag changed", zap.String("user_id", identity.ID), zap.Bool("is_admin", isAdmin))
	return identity, nil
}

// provision stores the profile unless it exists. New profiles never start
// as administrators.
func (uc *AuthUsecase) provision(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	identity.IsAdmin = false
	stored, created, err := uc.profiles.CreateIfAbsent(ctx, identity)
	if err != nil {
		uc.logger.Error("Failed to provision profile", zap.String("user_id", identity.ID), zap.Error(err))
		return nil, fmt.Errorf("provision profile: %w", err)
	}
	if created {
		uc.logger.Info("Profile provisioned", zap.String("user_id", stored.ID))
	}
	return stored, nil
}

func (uc *AuthUsecase) issue(identity *domain.Identity) (*domain.Session, error) {
	token, claims, err := uc.tokens.Issue(identity.ID)
	if err != nil {
		return nil, err
	}
	uc.cache.Add(identity.ID, identity)
	return &domain.Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Identity:  identity,
	}, nil
}
