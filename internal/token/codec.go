package token

import (
	"errors"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/Regera24/AstraMindProject/internal/domain"
)

// Kind selects which signing secret and lifetime a token uses.
type Kind int

const (
	// KindAccess is the short-lived bearer credential returned in response bodies.
	KindAccess Kind = iota
	// KindRefresh is the long-lived credential held in the refresh cookie.
	KindRefresh
)

var (
	// ErrInvalidSignature signals a token whose MAC does not verify, including
	// malformed tokens. It always takes precedence over ErrTokenExpired.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrTokenExpired signals a correctly signed token past its expiry instant.
	ErrTokenExpired = errors.New("token expired")
)

// Config carries the signing material for both token kinds. Access and refresh
// secrets must be distinct so one kind can never stand in for the other.
type Config struct {
	Issuer        string
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Claims is the verified payload of an issued token.
type Claims struct {
	Subject   string
	AccountID int64
	Scope     domain.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type customClaims struct {
	AccountID int64  `json:"accountId"`
	Scope     string `json:"scope"`
}

// Codec signs and verifies HS512 JWTs. It holds no mutable state and is safe
// for concurrent use.
type Codec struct {
	cfg Config
}

// NewCodec validates the signing configuration.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("token secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	return &Codec{cfg: cfg}, nil
}

// Issue signs a token of the given kind for the account. Every token carries a
// fresh random jti so two issuances are never byte-identical.
func (c *Codec) Issue(subject string, accountID int64, scope domain.Role, kind Kind) (string, error) {
	secret, ttl := c.material(kind)

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS512, Key: secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:  subject,
		Issuer:   c.cfg.Issuer,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
		ID:       uuid.NewString(),
	}
	custom := customClaims{
		AccountID: accountID,
		Scope:     scope.String(),
	}

	raw, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return raw, nil
}

// Verify checks the signature and expiry of a token of the given kind. The
// signature is always evaluated first and on its own; an expired token with a
// bad MAC reports ErrInvalidSignature, never ErrTokenExpired.
func (c *Codec) Verify(raw string, kind Kind) (*Claims, error) {
	secret, _ := c.material(kind)

	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS512})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var std gojwt.Claims
	var custom customClaims
	if err := parsed.Claims(secret, &std, &custom); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims := &Claims{
		Subject:   std.Subject,
		AccountID: custom.AccountID,
		Scope:     domain.Role(custom.Scope),
		TokenID:   std.ID,
	}
	if std.IssuedAt != nil {
		claims.IssuedAt = std.IssuedAt.Time()
	}
	if std.Expiry != nil {
		claims.ExpiresAt = std.Expiry.Time()
	}

	if std.Expiry == nil || !time.Now().Before(claims.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

func (c *Codec) material(kind Kind) ([]byte, time.Duration) {
	if kind == KindRefresh {
		return c.cfg.RefreshSecret, c.cfg.RefreshTTL
	}
	return c.cfg.AccessSecret, c.cfg.AccessTTL
}
