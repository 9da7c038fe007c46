// Package googleauth wraps the Google identity provider: authorization URL
// construction, the authorization-code exchange, and user-info retrieval.
package googleauth

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/studyforge/studyforge/internal/config"
	errs "github.com/studyforge/studyforge/internal/errors"
)

// Profile is the subset of the userinfo response the application consumes.
type Profile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Client talks to the identity provider. Provider metadata is discovered
// lazily on first use and cached, so construction does not hit the network.
type Client struct {
	cfg config.GoogleOAuthConfig

	mu       sync.Mutex
	provider *oidc.Provider
	oauth    *oauth2.Config
}

// New validates configuration and returns a client. A missing client ID is a
// configuration error surfaced immediately.
func New(cfg config.GoogleOAuthConfig) (*Client, error) {
	if cfg.GetGoogleClientID() == "" {
		return nil, errs.ErrNotConfigured
	}
	return &Client{cfg: cfg}, nil
}

func (c *Client) setup(ctx context.Context) (*oauth2.Config, *oidc.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.oauth != nil {
		return c.oauth, c.provider, nil
	}

	provider, err := oidc.NewProvider(ctx, c.cfg.GetGoogleIssuer())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	c.provider = provider
	c.oauth = &oauth2.Config{
		ClientID:     c.cfg.GetGoogleClientID(),
		ClientSecret: c.cfg.GetGoogleClientSecret(),
		Endpoint:     provider.Endpoint(),
		RedirectURL:  c.cfg.GetOAuthRedirectURL(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return c.oauth, c.provider, nil
}

// AuthCodeURL builds the provider's authorization URL carrying the given
// CSRF state token.
func (c *Client) AuthCodeURL(ctx context.Context, state string) (string, error) {
	oauthCfg, _, err := c.setup(ctx)
	if err != nil {
		return "", err
	}
	return oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// Exchange trades an authorization code for tokens. Codes are single-use
// upstream, so callers must not retry a failed exchange.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	oauthCfg, _, err := c.setup(ctx)
	if err != nil {
		return nil, err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrTokenExchange, "%v", err)
	}
	return token, nil
}

// UserInfo retrieves the authenticated user's profile with the access token.
func (c *Client) UserInfo(ctx context.Context, token *oauth2.Token) (Profile, error) {
	_, provider, err := c.setup(ctx)
	if err != nil {
		return Profile{}, err
	}

	info, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return Profile{}, errs.Wrapf(errs.ErrUserInfo, "%v", err)
	}

	var profile Profile
	if err := info.Claims(&profile); err != nil {
		return Profile{}, errs.Wrapf(errs.ErrUserInfo, "decode claims: %v", err)
	}
	return profile, nil
}

// Refresh obtains a fresh access token from a stored refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	oauthCfg, _, err := c.setup(ctx)
	if err != nil {
		return nil, err
	}

	source := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, errs.Wrapf(errs.ErrTokenExchange, "refresh: %v", err)
	}
	return token, nil
}
