package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
	gqhttp "github.com/abdul-hamid-achik/gastosqa/packages/http"
)

func TestPlaceholder(t *testing.T) {
	token, err := Placeholder().Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlaceholderToken, token)
}

func TestStaticSource_Empty(t *testing.T) {
	_, err := StaticSource("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenSourceFunc(t *testing.T) {
	src := TokenSourceFunc(func(context.Context) (string, error) { return "abc", nil })
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestBearerHeader(t *testing.T) {
	assert.Equal(t, "Bearer abc", BearerHeader("abc"))
}

func TestJWTSource(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	src, err := NewJWTSource(JWTConfig{
		Secret:  "test-jwt-secret-that-is-32-chars-long",
		Subject: "qa-user",
		TTL:     time.Minute,
		Now:     func() time.Time { return now },
	})
	require.NoError(t, err)

	raw, err := src.Token(context.Background())
	require.NoError(t, err)

	parsed := &claims{}
	_, err = jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return []byte("test-jwt-secret-that-is-32-chars-long"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "qa-user", parsed.Subject)
	assert.Equal(t, "gastosqa", parsed.Issuer)
	assert.Equal(t, "access", parsed.TokenType)
	assert.Equal(t, now.Add(time.Minute).Unix(), parsed.ExpiresAt.Unix())
	assert.NotEmpty(t, parsed.ID)
}

func TestJWTSource_RequiresSecret(t *testing.T) {
	_, err := NewJWTSource(JWTConfig{})
	assert.Error(t, err)
}

func TestJWTSource_CancelledContext(t *testing.T) {
	src, err := NewJWTSource(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOAuth2Source_ClientCredentials(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "gastos:read gastos:write", r.PostForm.Get("scope"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "qa", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	src := NewOAuth2Source(&OAuth2Config{
		TokenURL:     server.URL,
		ClientID:     "qa",
		ClientSecret: "secret",
		Scopes:       []string{"gastos:read", "gastos:write"},
		GrantType:    ClientCredentials,
	})

	for i := 0; i < 3; i++ {
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	}
	// cached until expiry
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOAuth2Source_Password(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ana", r.PostForm.Get("username"))
		assert.Equal(t, "pw", r.PostForm.Get("password"))
		_, _ = w.Write([]byte(`{"access_token":"tok-pw"}`))
	}))
	defer server.Close()

	src := NewOAuth2Source(&OAuth2Config{
		TokenURL:  server.URL,
		Username:  "ana",
		Password:  "pw",
		GrantType: Password,
	})

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-pw", token)
}

func TestOAuth2Source_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
	}))
	defer server.Close()

	_, err := NewOAuth2Source(&OAuth2Config{TokenURL: server.URL}).Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client - bad secret")
}

func TestOAuth2Source_SharesClientSettings(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gastosqa/test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"access_token":"tok-tls"}`))
	}))
	defer server.Close()

	cfg := &OAuth2Config{TokenURL: server.URL}

	_, err := NewOAuth2Source(cfg).Token(context.Background())
	require.Error(t, err, "self-signed certificate is rejected by default")

	client := gqhttp.NewClient(gqhttp.WithValidateSSL(false), gqhttp.WithDefaultHeader("User-Agent", "gastosqa/test"))
	token, err := NewOAuth2Source(cfg, WithOAuth2Client(client)).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-tls", token)
}

func TestNewOAuth2Source_NilClientKeepsDefault(t *testing.T) {
	src := NewOAuth2Source(&OAuth2Config{}, WithOAuth2Client(nil))
	assert.NotNil(t, src.httpClient)
}

func TestToken_IsExpired(t *testing.T) {
	assert.False(t, (&Token{}).IsExpired())
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(10 * time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
}

func TestFromConfig(t *testing.T) {
	t.Run("default is placeholder", func(t *testing.T) {
		src, err := FromConfig(config.AuthConfig{}, nil)
		require.NoError(t, err)
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, PlaceholderToken, token)
	})

	t.Run("static token", func(t *testing.T) {
		src, err := FromConfig(config.AuthConfig{Type: config.AuthStatic, Token: "abc"}, nil)
		require.NoError(t, err)
		assert.Equal(t, StaticSource("abc"), src)
	})

	t.Run("jwt", func(t *testing.T) {
		src, err := FromConfig(config.AuthConfig{Type: config.AuthJWT, Secret: "s", TTL: 60}, nil)
		require.NoError(t, err)
		assert.IsType(t, &JWTSource{}, src)
	})

	t.Run("oauth2", func(t *testing.T) {
		src, err := FromConfig(config.AuthConfig{Type: config.AuthOAuth2, TokenURL: "https://auth.example.com/token"}, nil)
		require.NoError(t, err)
		require.IsType(t, &OAuth2Source{}, src)
		assert.Equal(t, ClientCredentials, src.(*OAuth2Source).config.GrantType)
	})

	t.Run("oauth2 uses the given client", func(t *testing.T) {
		client := gqhttp.NewClient()
		src, err := FromConfig(config.AuthConfig{Type: config.AuthOAuth2, TokenURL: "https://auth.example.com/token"}, client)
		require.NoError(t, err)
		assert.Same(t, client, src.(*OAuth2Source).httpClient)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := FromConfig(config.AuthConfig{Type: "kerberos"}, nil)
		assert.Error(t, err)
	})
}
