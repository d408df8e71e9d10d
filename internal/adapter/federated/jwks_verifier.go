package federated

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// JWKSVerifier checks OIDC ID tokens from an external provider against its
// published signing keys.
type JWKSVerifier struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience string
	leeway   time.Duration
	logger   *logger.Logger
}

// NewJWKSVerifier keeps the provider's JWKS refreshed in the background. The
// provider does not have to be reachable at start-up.
func NewJWKSVerifier(ctx context.Context, cfg config.FederatedConfig, log *logger.Logger) (*JWKSVerifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			log.Error("Failed to refresh JWKS", zap.String("url", cfg.JWKSURL), zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("create keyfunc: %w", err)
	}
	return NewJWKSVerifierWithKeyfunc(k, cfg, log), nil
}

// NewJWKSVerifierFromJSON builds a verifier over a static key set.
func NewJWKSVerifierFromJSON(raw json.RawMessage, cfg config.FederatedConfig, log *logger.Logger) (*JWKSVerifier, error) {
	k, err := keyfunc.NewJWKSetJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse JWKS: %w", err)
	}
	return NewJWKSVerifierWithKeyfunc(k, cfg, log), nil
}

func NewJWKSVerifierWithKeyfunc(k keyfunc.Keyfunc, cfg config.FederatedConfig, log *logger.Logger) *JWKSVerifier {
	return &JWKSVerifier{
		jwks:     k,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		logger:   log.Named("JWKSVerifier"),
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, idToken string) (*domain.FederatedClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, v.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil || !token.Valid {
		v.logger.Debug("ID token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", domain.ErrInvalidToken)
	}

	return &domain.FederatedClaims{
		Issuer:  claims.Issuer,
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
