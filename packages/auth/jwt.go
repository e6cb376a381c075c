package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultJWTTTL is the lifetime of tokens issued by JWTSource
const DefaultJWTTTL = 15 * time.Minute

// JWTConfig configures a JWTSource
type JWTConfig struct {
	Secret  string
	Issuer  string
	Subject string
	TTL     time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// JWTSource signs a fresh HS256 token on every call
type JWTSource struct {
	secret  []byte
	issuer  string
	subject string
	ttl     time.Duration
	now     func() time.Time
}

// claims carries the standard claims plus the environment-independent
// token type the API under test checks
type claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

func NewJWTSource(cfg JWTConfig) (*JWTSource, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultJWTTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "gastosqa"
	}
	if cfg.Subject == "" {
		cfg.Subject = uuid.NewString()
	}
	return &JWTSource{
		secret:  []byte(cfg.Secret),
		issuer:  cfg.Issuer,
		subject: cfg.Subject,
		ttl:     cfg.TTL,
		now:     cfg.Now,
	}, nil
}

func (s *JWTSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := s.now()
	c := claims{
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
