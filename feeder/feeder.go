package feeder

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

type FeedItem struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
}

// FetchFeed fetches an RSS or Atom feed, newest entries first as served.
// If limit is greater than 0, it returns only the first limit items.
func FetchFeed(ctx context.Context, client *http.Client, feedURL string, limit int) ([]FeedItem, error) {
	fp := gofeed.NewParser()
	if client != nil {
		fp.Client = client
	}

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var items []FeedItem
	for _, item := range feed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		items = append(items, FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Description,
			PublishedAt: published,
		})
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}
