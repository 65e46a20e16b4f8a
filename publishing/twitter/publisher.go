package twitter

import (
	"context"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/models"
)

type TokenStore interface {
	UpdateTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiresAt *time.Time) error
}

// Publisher posts a stored post as a single tweet.
type Publisher struct {
	client *Client
	oauth  *OAuth
	tokens TokenStore
	now    func() time.Time
}

func NewPublisher(client *Client, oauth *OAuth, tokens TokenStore) *Publisher {
	return &Publisher{client: client, oauth: oauth, tokens: tokens, now: time.Now}
}

// Check rejects posts that cannot become a valid tweet. It makes no network calls.
func (p *Publisher) Check(post *models.Post) error {
	c := Enforce(post.Content, post.Hashtags)
	if utf8.RuneCountInString(c.Text) > MaxTweetChars {
		return apperr.Constraint("Post exceeds 280 characters after hashtags. Shorten content or hashtags.")
	}
	if c.Text == "" && mediaRef(post) == "" {
		return apperr.Constraint("Post has no content")
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, post *models.Post, acc *models.Account) (string, error) {
	token, err := p.accessToken(ctx, acc)
	if err != nil {
		return "", err
	}

	c := Enforce(post.Content, post.Hashtags)
	if c.WasAdjusted {
		logger.InfoWithFields("tweet adjusted to fit", logger.Fields{
			"post_id":  post.ID.Hex(),
			"hashtags": len(c.Hashtags),
			"chars":    utf8.RuneCountInString(c.Text),
		})
	}

	var mediaIDs []string
	if ref := mediaRef(post); ref != "" {
		data, contentType, err := p.client.LoadMedia(ctx, ref)
		if err != nil {
			return "", err
		}
		id, err := p.client.UploadMedia(ctx, token, data, contentType)
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, id)
	}
	return p.client.CreateTweet(ctx, token, c.Text, mediaIDs)
}

// accessToken refreshes an expired token and persists the new pair.
func (p *Publisher) accessToken(ctx context.Context, acc *models.Account) (string, error) {
	if !acc.TokenExpired(p.now()) {
		return acc.AccessToken, nil
	}
	if p.oauth == nil {
		return "", apperr.Upstream("X access token expired, reconnect the account", nil)
	}
	tok, err := p.oauth.Refresh(ctx, acc)
	if err != nil {
		return "", err
	}
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = acc.RefreshToken
	}
	var exp *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry
		exp = &e
	}
	if err := p.tokens.UpdateTokens(ctx, acc.ID, tok.AccessToken, refresh, exp); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "Failed to store refreshed X token", err)
	}
	acc.AccessToken, acc.RefreshToken, acc.TokenExpiresAt = tok.AccessToken, refresh, exp
	logger.InfoWithFields("x token refreshed", logger.Fields{"account_id": acc.ID.Hex()})
	return tok.AccessToken, nil
}

func mediaRef(post *models.Post) string {
	if post.MediaURL != "" {
		return post.MediaURL
	}
	return post.PublicMediaURL
}
