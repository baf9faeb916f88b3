package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/logger"
)

// Provider issues and interprets bearer tokens.
type Provider interface {
	// Decode returns the execution context carried by token. Malformed,
	// expired, and revoked tokens yield the anonymous context.
	Decode(ctx context.Context, token string) execctx.Context

	// Encode issues a token for username with roles.
	Encode(ctx context.Context, username string, roles []string) (string, error)

	// Revoke invalidates token for its remaining lifetime.
	Revoke(ctx context.Context, token string) error
}

// Claims is the verified content of a token.
type Claims struct {
	ID        string
	Username  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// JWTProvider implements Provider with HMAC-SHA256 signed JWTs.
type JWTProvider struct {
	key        []byte
	ttl        time.Duration
	issuer     string
	revocation RevocationStore
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a JWTProvider.
type Option func(*JWTProvider)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(p *JWTProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim written and required.
func WithIssuer(issuer string) Option {
	return func(p *JWTProvider) {
		if issuer != "" {
			p.issuer = issuer
		}
	}
}

// WithRevocationStore sets where revoked token IDs are kept.
func WithRevocationStore(store RevocationStore) Option {
	return func(p *JWTProvider) {
		if store != nil {
			p.revocation = store
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *JWTProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger used to report rejected tokens.
func WithLogger(logger *slog.Logger) Option {
	return func(p *JWTProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewJWTProvider creates a provider signing with key. Without
// WithRevocationStore revocations are kept in memory.
func NewJWTProvider(key []byte, opts ...Option) (*JWTProvider, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}

	p := &JWTProvider{
		key:        key,
		ttl:        24 * time.Hour,
		issuer:     "commander",
		revocation: NewMemoryRevocationList(),
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// NewJWTProviderFromConfig creates a provider from configuration.
// Additional options override config values.
func NewJWTProviderFromConfig(cfg Config, opts ...Option) (*JWTProvider, error) {
	allOpts := append([]Option{
		WithTTL(cfg.TTL),
		WithIssuer(cfg.Issuer),
	}, opts...)

	return NewJWTProvider([]byte(cfg.SigningKey), allOpts...)
}

// Encode issues a signed token for username and roles.
func (p *JWTProvider) Encode(_ context.Context, username string, roles []string) (string, error) {
	if username == "" {
		return "", ErrEmptyUsername
	}

	now := p.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Roles: roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims. It checks the revocation list.
func (p *JWTProvider) Parse(ctx context.Context, token string) (Claims, error) {
	claims, err := p.verify(token)
	if err != nil {
		return Claims{}, err
	}

	revoked, err := p.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return Claims{}, ErrTokenRevoked
	}

	return claims, nil
}

// Decode returns the execution context for token, or the anonymous context
// when the token cannot be trusted.
func (p *JWTProvider) Decode(ctx context.Context, token string) execctx.Context {
	if token == "" {
		return execctx.Anonymous()
	}

	claims, err := p.Parse(ctx, token)
	if err != nil {
		p.logger.DebugContext(ctx, "rejected bearer token",
			logger.Component("identity"),
			logger.Error(err))
		return execctx.Anonymous()
	}

	return execctx.New(claims.Username, claims.Roles...)
}

// Revoke adds token to the revocation list until it expires. Tokens that
// are already invalid need no revocation.
func (p *JWTProvider) Revoke(ctx context.Context, token string) error {
	claims, err := p.verify(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}

	ttl := claims.ExpiresAt.Sub(p.now())
	if err := p.revocation.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	p.logger.InfoContext(ctx, "token revoked",
		logger.Component("identity"),
		logger.Username(claims.Username),
		logger.ID("token_id", claims.ID))

	return nil
}

func (p *JWTProvider) verify(token string) (Claims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return p.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if parsed.Subject == "" || parsed.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}

	c := Claims{
		ID:        parsed.ID,
		Username:  parsed.Subject,
		Roles:     parsed.Roles,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		c.IssuedAt = parsed.IssuedAt.Time
	}
	return c, nil
}
