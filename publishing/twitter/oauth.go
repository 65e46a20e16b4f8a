package twitter

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"social-pilot/apperr"
	"social-pilot/models"
)

var Scopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access", "media.write"}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	APIBaseURL   string
}

// OAuth runs the X OAuth2 authorization code flow with PKCE.
type OAuth struct {
	cfg        oauth2.Config
	httpClient *http.Client
}

func NewOAuth(c OAuthConfig, httpClient *http.Client) *OAuth {
	return &OAuth{
		cfg: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.AuthURL,
				TokenURL:  strings.TrimRight(c.APIBaseURL, "/") + "/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: httpClient,
	}
}

// Configured reports whether client credentials and a redirect are set.
func (o *OAuth) Configured() bool {
	return o.cfg.ClientID != "" && o.cfg.ClientSecret != "" && o.cfg.RedirectURL != ""
}

// Start returns the authorize URL plus the state and PKCE verifier the
// callback must present.
func (o *OAuth) Start() (authURL, state, verifier string, err error) {
	b := make([]byte, 24)
	if _, err = rand.Read(b); err != nil {
		return "", "", "", err
	}
	state = hex.EncodeToString(b)
	verifier = oauth2.GenerateVerifier()
	authURL = o.cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, state, verifier, nil
}

func (o *OAuth) ctx(ctx context.Context) context.Context {
	if o.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

// Exchange trades the callback code for tokens.
func (o *OAuth) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := o.cfg.Exchange(o.ctx(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, apperr.Upstream("X token exchange failed", err)
	}
	return tok, nil
}

// Refresh returns a fresh token for an account whose access token expired.
func (o *OAuth) Refresh(ctx context.Context, acc *models.Account) (*oauth2.Token, error) {
	if acc.RefreshToken == "" {
		return nil, apperr.Upstream("X access token expired, reconnect the account", nil)
	}
	src := o.cfg.TokenSource(o.ctx(ctx), &oauth2.Token{
		AccessToken:  acc.AccessToken,
		RefreshToken: acc.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, apperr.Upstream("Failed to refresh X access token", err)
	}
	return tok, nil
}

// AccountFromToken builds the account record for the token owner.
func AccountFromToken(tok *oauth2.Token, user User) *models.Account {
	acc := &models.Account{
		Platform:       models.PlatformTwitter,
		ExternalUserID: user.ID,
		Username:       user.Username,
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		acc.TokenExpiresAt = &exp
	}
	return acc
}
