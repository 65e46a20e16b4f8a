package instagram

import (
	"context"
	"strings"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/models"
)

type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Check requires a media URL the Graph API can fetch.
func (p *Publisher) Check(post *models.Post) error {
	u := strings.TrimSpace(post.PublicMediaURL)
	if u == "" || strings.HasPrefix(u, "/") {
		return apperr.Constraint("Missing public image URL. Re-generate this post to get one.")
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, post *models.Post, acc *models.Account) (string, error) {
	caption := Caption(post.Content, post.Hashtags)

	containerID, err := p.client.CreateContainer(ctx, acc.ExternalUserID, post.PublicMediaURL, caption, acc.AccessToken)
	if err != nil {
		return "", err
	}
	logger.DebugWithFields("instagram container created", logger.Fields{"post_id": post.ID.Hex(), "container_id": containerID})

	if err := p.client.WaitForContainer(ctx, containerID, acc.AccessToken); err != nil {
		return "", err
	}
	return p.client.PublishContainer(ctx, acc.ExternalUserID, containerID, acc.AccessToken)
}
