// Package auth provides the credential sources used to attach an
// Authorization header to request specifications.
//
// Three sources are available:
//   - StaticSource returns a fixed token (the default placeholder)
//   - JWTSource signs short-lived HS256 tokens locally
//   - OAuth2Source fetches and caches tokens from an OAuth2 token endpoint
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
)

// PlaceholderToken is returned by the default source. Environments that
// enforce authentication need a real source configured.
const PlaceholderToken = "gastosqa-placeholder-token"

// ErrNoToken is returned when a source produced an empty token
var ErrNoToken = errors.New("token source returned an empty token")

// TokenSource issues bearer credentials.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticSource always returns the same token
type StaticSource string

func (s StaticSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Placeholder returns the default source used when nothing is configured
func Placeholder() TokenSource {
	return StaticSource(PlaceholderToken)
}

// BearerHeader formats a token as an Authorization header value
func BearerHeader(token string) string {
	return "Bearer " + token
}

// FromConfig builds the token source selected by cfg.Type. OAuth2 token
// requests go through client; nil means a default client.
func FromConfig(cfg config.AuthConfig, client *http.Client) (TokenSource, error) {
	switch cfg.Type {
	case "", config.AuthStatic:
		if cfg.Token == "" {
			return Placeholder(), nil
		}
		return StaticSource(cfg.Token), nil
	case config.AuthJWT:
		return NewJWTSource(JWTConfig{
			Secret:  cfg.Secret,
			Issuer:  cfg.Issuer,
			Subject: cfg.Subject,
			TTL:     secondsToDuration(cfg.TTL),
		})
	case config.AuthOAuth2:
		grant := GrantType(cfg.GrantType)
		if grant == "" {
			grant = ClientCredentials
		}
		return NewOAuth2Source(&OAuth2Config{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Username:     cfg.Username,
			Password:     cfg.Password,
			Scopes:       cfg.Scopes,
			GrantType:    grant,
		}, WithOAuth2Client(client)), nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", cfg.Type)
	}
}
