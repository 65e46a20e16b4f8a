package instagram

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"social-pilot/apperr"
	"social-pilot/internal/httpclient"
	"social-pilot/models"
)

var Scopes = []string{
	"instagram_basic",
	"instagram_content_publish",
	"instagram_manage_comments",
	"pages_show_list",
	"pages_read_engagement",
}

// 장기 토큰 응답에 expires_in 이 없으면 60일로 본다.
const defaultLongLivedTTL = 5184000 * time.Second

type OAuthConfig struct {
	AppID        string
	AppSecret    string
	RedirectURL  string
	DialogURL    string
	GraphBaseURL string
}

// OAuth links an Instagram business account through the Facebook login dialog.
type OAuth struct {
	cfg        oauth2.Config
	appID      string
	appSecret  string
	graph      *httpclient.BaseClient
	httpClient *http.Client
	now        func() time.Time
}

func NewOAuth(c OAuthConfig, httpClient *http.Client) *OAuth {
	graph := httpclient.NewBaseClientWithClient(httpClient, c.GraphBaseURL)
	return &OAuth{
		cfg: oauth2.Config{
			ClientID:     c.AppID,
			ClientSecret: c.AppSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.DialogURL,
				TokenURL:  graph.BaseURL + "/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		appID:      c.AppID,
		appSecret:  c.AppSecret,
		graph:      graph,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (o *OAuth) Configured() bool {
	return o.appID != "" && o.appSecret != "" && o.cfg.RedirectURL != ""
}

// AuthURL returns the dialog URL. state carries the product id to link.
func (o *OAuth) AuthURL(state string) string {
	return o.cfg.AuthCodeURL(state)
}

// Link runs the whole callback: code exchange, long-lived token, page and
// IG user discovery, page token and username. The returned account is not stored.
func (o *OAuth) Link(ctx context.Context, code string) (*models.Account, error) {
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	short, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.Upstream("Instagram token exchange failed", err)
	}

	userToken, expiresIn, err := o.longLived(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}

	pageID, igUserID, err := o.discover(ctx, userToken)
	if err != nil {
		return nil, err
	}

	pageToken, err := o.pageToken(ctx, pageID, userToken)
	if err != nil {
		return nil, err
	}

	username, err := o.username(ctx, igUserID, pageToken)
	if err != nil {
		return nil, err
	}

	exp := o.now().Add(expiresIn)
	return &models.Account{
		Platform:       models.PlatformInstagram,
		ExternalUserID: igUserID,
		Username:       username,
		AccessToken:    pageToken,
		TokenExpiresAt: &exp,
		PageID:         pageID,
	}, nil
}

type checker interface {
	check(err error, fallback string) error
}

// get decodes the response into out, which embeds graphError, even on non-2xx.
func (o *OAuth) get(ctx context.Context, relPath string, q url.Values, out checker, fallback string) error {
	req, err := o.graph.NewRequest(ctx, http.MethodGet, relPath, q, nil)
	if err != nil {
		return err
	}
	err = o.graph.DoJSON(req, out)
	return out.check(err, fallback)
}

type longLivedResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	graphError
}

func (o *OAuth) longLived(ctx context.Context, shortToken string) (string, time.Duration, error) {
	var resp longLivedResponse
	q := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {o.appID},
		"client_secret":     {o.appSecret},
		"fb_exchange_token": {shortToken},
	}
	if err := o.get(ctx, "/oauth/access_token", q, &resp, "Instagram long-lived token exchange failed"); err != nil {
		return "", 0, err
	}
	if resp.AccessToken == "" {
		return "", 0, apperr.Upstream("Instagram long-lived token exchange failed", nil)
	}
	ttl := defaultLongLivedTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	return resp.AccessToken, ttl, nil
}

type debugTokenResponse struct {
	Data struct {
		GranularScopes []struct {
			Scope     string   `json:"scope"`
			TargetIDs []string `json:"target_ids"`
		} `json:"granular_scopes"`
	} `json:"data"`
	graphError
}

// discover reads the page and IG user ids granted to the token.
func (o *OAuth) discover(ctx context.Context, userToken string) (pageID, igUserID string, err error) {
	var resp debugTokenResponse
	q := url.Values{
		"input_token":  {userToken},
		"access_token": {o.appID + "|" + o.appSecret},
	}
	if err := o.get(ctx, "/debug_token", q, &resp, "Failed to inspect Instagram token"); err != nil {
		return "", "", err
	}
	for _, s := range resp.Data.GranularScopes {
		if len(s.TargetIDs) == 0 {
			continue
		}
		switch s.Scope {
		case "pages_show_list":
			pageID = s.TargetIDs[0]
		case "instagram_basic":
			igUserID = s.TargetIDs[0]
		}
	}
	if pageID == "" || igUserID == "" {
		return "", "", apperr.Validation("No Facebook page with an Instagram business account was granted")
	}
	return pageID, igUserID, nil
}

type fieldsResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	graphError
}

func (o *OAuth) pageToken(ctx context.Context, pageID, userToken string) (string, error) {
	var resp fieldsResponse
	q := url.Values{"fields": {"access_token"}, "access_token": {userToken}}
	if err := o.get(ctx, "/"+pageID, q, &resp, "Failed to fetch page access token"); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", apperr.Upstream("Failed to fetch page access token", nil)
	}
	return resp.AccessToken, nil
}

func (o *OAuth) username(ctx context.Context, igUserID, pageToken string) (string, error) {
	var resp fieldsResponse
	q := url.Values{"fields": {"username"}, "access_token": {pageToken}}
	if err := o.get(ctx, "/"+igUserID, q, &resp, "Failed to fetch Instagram username"); err != nil {
		return "", err
	}
	return resp.Username, nil
}
