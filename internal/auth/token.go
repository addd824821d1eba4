package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"raidstats/internal/logging"
)

// TokenState is the result of checking a cached token.
type TokenState int

const (
	TokenAbsent TokenState = iota
	TokenExpired
	TokenValid
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "absent"
	}
}

// Token is the cached bearer credential. ExpiresAt is unix seconds; zero
// means the issuer gave no expiry.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// State classifies t at now. A nil token is absent.
func (t *Token) State(now time.Time) TokenState {
	if t == nil || t.AccessToken == "" {
		return TokenAbsent
	}
	if t.ExpiresAt != 0 && now.Unix() > t.ExpiresAt {
		return TokenExpired
	}
	return TokenValid
}

// Store persists a single token. Load returns (nil, nil) when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Token, error)
	Save(ctx context.Context, t Token) error
}

// Acquirer obtains a fresh token from the issuer.
type Acquirer interface {
	Acquire(ctx context.Context) (Token, error)
}

// ClientCredentials acquires tokens with the OAuth2 client-credentials grant.
type ClientCredentials struct {
	cfg clientcredentials.Config
}

// NewClientCredentials builds an Acquirer for the given token endpoint.
func NewClientCredentials(clientID, clientSecret, tokenURL string) *ClientCredentials {
	return &ClientCredentials{cfg: clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}}
}

func (c *ClientCredentials) Acquire(ctx context.Context) (Token, error) {
	tok, err := c.cfg.Token(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("client credentials grant: %w", err)
	}
	t := Token{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		t.ExpiresAt = tok.Expiry.Unix()
	}
	return t, nil
}

// Cache hands out bearer headers, re-acquiring the token when the stored
// one is expired or absent. Concurrent callers share one acquisition.
type Cache struct {
	store    Store
	acquirer Acquirer
	now      func() time.Time
	group    singleflight.Group
}

// NewCache builds a token cache.
func NewCache(store Store, acquirer Acquirer) *Cache {
	return &Cache{store: store, acquirer: acquirer, now: time.Now}
}

// Check loads the stored token and classifies it. A store failure is
// logged and treated as absent.
func (c *Cache) Check(ctx context.Context) (TokenState, *Token) {
	t, err := c.store.Load(ctx)
	if err != nil {
		logging.Logger().Warnf("token cache load failed, treating as absent: %v", err)
		return TokenAbsent, nil
	}
	return t.State(c.now()), t
}

// Authorization returns "Bearer <token>".
func (c *Cache) Authorization(ctx context.Context) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

// Token returns a valid access token.
func (c *Cache) Token(ctx context.Context) (string, error) {
	state, t := c.Check(ctx)
	if state == TokenValid {
		return t.AccessToken, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited.
		if state, t := c.Check(ctx); state == TokenValid {
			return t.AccessToken, nil
		}
		logging.Logger().Infof("acquiring access token (cached token %s)", state)
		fresh, err := c.acquirer.Acquire(ctx)
		if err != nil {
			return "", fmt.Errorf("acquire token: %w", err)
		}
		if err := c.store.Save(ctx, fresh); err != nil {
			logging.Logger().Warnf("token cache save failed: %v", err)
		}
		return fresh.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
