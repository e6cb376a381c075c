package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/gastosqa/packages/http"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
)

// expirySkew is subtracted from a token's lifetime to account for clock skew
const expirySkew = 30 * time.Second

// OAuth2Config holds OAuth2 configuration
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // For password grant
	Password     string // For password grant
	GrantType    GrantType
}

// Token represents an OAuth2 access token
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// IsExpired checks if the token is expired
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expirySkew).After(t.ExpiresAt)
}

// OAuth2Source fetches tokens from a token endpoint and reuses them until
// they expire
type OAuth2Source struct {
	config     *OAuth2Config
	httpClient *http.Client
	cache      *TokenCache
}

// OAuth2Option configures an OAuth2Source
type OAuth2Option func(*OAuth2Source)

// WithOAuth2Client sends token requests through c, so they share its TLS,
// proxy, timeout and rate limit settings with the API under test.
func WithOAuth2Client(c *http.Client) OAuth2Option {
	return func(p *OAuth2Source) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewOAuth2Source creates a new OAuth2 token source
func NewOAuth2Source(config *OAuth2Config, opts ...OAuth2Option) *OAuth2Source {
	p := &OAuth2Source{
		config: config,
		cache:  NewTokenCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = http.NewClient()
	}
	return p
}

// Token implements TokenSource
func (p *OAuth2Source) Token(ctx context.Context) (string, error) {
	token, err := p.GetToken(ctx)
	if err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", ErrNoToken
	}
	return token.AccessToken, nil
}

// GetToken retrieves a valid access token, fetching a new one if necessary
func (p *OAuth2Source) GetToken(ctx context.Context) (*Token, error) {
	cacheKey := p.cacheKey()
	if token := p.cache.Get(cacheKey); token != nil && !token.IsExpired() {
		return token, nil
	}

	token, err := p.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	p.cache.Set(cacheKey, token)
	return token, nil
}

func (p *OAuth2Source) cacheKey() string {
	return fmt.Sprintf("%s:%s:%s", p.config.TokenURL, p.config.ClientID, strings.Join(p.config.Scopes, ","))
}

func (p *OAuth2Source) fetchToken(ctx context.Context) (*Token, error) {
	data := url.Values{}
	switch p.config.GrantType {
	case Password:
		data.Set("grant_type", string(Password))
		data.Set("username", p.config.Username)
		data.Set("password", p.config.Password)
	default:
		data.Set("grant_type", string(ClientCredentials))
	}
	if len(p.config.Scopes) > 0 {
		data.Set("scope", strings.Join(p.config.Scopes, " "))
	}

	return p.doTokenRequest(ctx, data)
}

func (p *OAuth2Source) doTokenRequest(ctx context.Context, data url.Values) (*Token, error) {
	req := http.NewRequest(nethttp.MethodPost, p.config.TokenURL).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(data.Encode())
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(p.config.ClientID + ":" + p.config.ClientSecret))
		req.SetHeader("Authorization", "Basic "+credentials)
	}

	resp, err := p.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(resp.Body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token request failed: %s - %s", errResp.Error, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, resp.BodyString())
	}

	var token Token
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
