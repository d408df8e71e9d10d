// Package session keeps the client-side view of who is signed in and of the
// listing collections they are looking at.
package session

import (
	"context"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Authenticator is the identity half of the API client.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, displayName string) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignInFederated(ctx context.Context, idToken string) (*identity.Session, error)
	SignOut(ctx context.Context) error
	Me(ctx context.Context) (*identity.Identity, error)
	SetToken(token string)
	Token() string
}

type Session struct {
	auth     Authenticator
	identity *Observable[*identity.Identity]
	views    *ViewState
	logger   *logger.Logger
}

func New(auth Authenticator, listings ListingSource, log *logger.Logger) *Session {
	return &Session{
		auth:     auth,
		identity: NewObservable[*identity.Identity](nil),
		views:    NewViewState(listings),
		logger:   log.Named("Session"),
	}
}

// Identity returns the signed-in identity, nil when signed out.
func (s *Session) Identity() *identity.Identity {
	return s.identity.Value()
}

// Token returns the bearer token of the current session.
func (s *Session) Token() string {
	return s.auth.Token()
}

func (s *Session) Views() *ViewState {
	return s.views
}

// Subscribe calls fn with the current identity and again after every change.
func (s *Session) Subscribe(fn func(*identity.Identity)) (unsubscribe func()) {
	return s.identity.Subscribe(fn)
}

func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (*identity.Identity, error) {
	return s.establish(s.auth.SignUp(ctx, email, password, displayName))
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	return s.establish(s.auth.SignIn(ctx, email, password))
}

func (s *Session) SignInFederated(ctx context.Context, idToken string) (*identity.Identity, error) {
	return s.establish(s.auth.SignInFederated(ctx, idToken))
}

func (s *Session) establish(sess *identity.Session, err error) (*identity.Identity, error) {
	if err != nil {
		return nil, err
	}
	s.switchIdentity(sess.Identity)
	return sess.Identity, nil
}

// Restore resumes a session from a saved token. An unusable token leaves the
// session signed out.
func (s *Session) Restore(ctx context.Context, token string) (*identity.Identity, error) {
	s.auth.SetToken(token)
	id, err := s.auth.Me(ctx)
	if err != nil {
		s.auth.SetToken("")
		s.switchIdentity(nil)
		return nil, err
	}
	s.switchIdentity(id)
	return id, nil
}

// SignOut ends the session locally even when the server call fails.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	if err != nil {
		s.logger.Warn("Server sign-out failed, dropping session locally", zap.Error(err))
	}
	s.switchIdentity(nil)
	return err
}

func (s *Session) switchIdentity(id *identity.Identity) {
	prev := s.identity.Value()
	if prev == nil || id == nil || prev.ID != id.ID {
		s.views.Clear(ViewMine, ViewPending)
	}
	s.identity.Set(id)
	if id != nil {
		s.logger.Debug("Session established", zap.String("identity_id", id.ID), zap.Bool("is_admin", id.IsAdmin))
	} else {
		s.logger.Debug("Session cleared")
	}
}

// ApplyStatus and Remove forward listing mutations to the cached views.
func (s *Session) ApplyStatus(id string, status domain.ListingStatus) {
	s.views.ApplyStatus(id, status)
}

func (s *Session) Remove(id string) {
	s.views.Remove(id)
}

func (s *Session) Close() {
	s.identity.Close()
}
