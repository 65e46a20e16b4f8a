// Package briefimport builds a product brief from its landing page and changelog feed.
package briefimport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"social-pilot/apperr"
	"social-pilot/feeder"
	"social-pilot/internal/logger"
	"social-pilot/parser"
	"social-pilot/renderer"
)

// MaxBriefChars caps the page text kept in an imported brief.
const MaxBriefChars = 20000

type Importer struct {
	renderer  renderer.Renderer
	client    *http.Client
	feedLimit int
}

func NewImporter(r renderer.Renderer, client *http.Client, feedLimit int) *Importer {
	if feedLimit <= 0 {
		feedLimit = 5
	}
	return &Importer{renderer: r, client: client, feedLimit: feedLimit}
}

// Result is the assembled brief and where it came from.
type Result struct {
	Brief     string
	Title     string
	Extractor string
	Updates   int
}

// Import renders pageURL, extracts its readable text and appends recent
// entries from feedURL under "Recent updates". Either URL may be empty, not both.
func (im *Importer) Import(ctx context.Context, pageURL, feedURL string) (*Result, error) {
	pageURL, feedURL = strings.TrimSpace(pageURL), strings.TrimSpace(feedURL)
	if pageURL == "" && feedURL == "" {
		return nil, apperr.Validation("url or feedUrl required")
	}

	var (
		b   strings.Builder
		res Result
	)
	if pageURL != "" {
		article, err := im.page(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		res.Title, res.Extractor = article.Title, article.Extractor
		if article.Title != "" {
			fmt.Fprintf(&b, "# %s\n\n", article.Title)
		}
		fmt.Fprintf(&b, "Source: %s\n\n%s\n", pageURL, clip(article.Text, MaxBriefChars))
	}

	if feedURL != "" {
		items, err := feeder.FetchFeed(ctx, im.client, feedURL, im.feedLimit)
		switch {
		case err != nil && pageURL == "":
			return nil, apperr.Upstream("Failed to fetch feed", err)
		case err != nil:
			logger.WarnWithFields("brief import feed skipped", logger.Fields{"feed_url": feedURL, "error": err.Error()})
		case len(items) > 0:
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("## Recent updates\n")
			for _, it := range items {
				b.WriteString(updateLine(it))
			}
			res.Updates = len(items)
		}
	}

	res.Brief = strings.TrimSpace(b.String())
	if res.Brief == "" {
		return nil, apperr.Parse("No readable text found", nil)
	}
	logger.InfoWithFields("brief imported", logger.Fields{
		"url":       pageURL,
		"feed_url":  feedURL,
		"extractor": res.Extractor,
		"updates":   res.Updates,
		"chars":     utf8.RuneCountInString(res.Brief),
	})
	return &res, nil
}

func (im *Importer) page(ctx context.Context, pageURL string) (*parser.Article, error) {
	htmlStr, err := im.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch landing page", err)
	}
	article, err := parser.ParseArticle(htmlStr, pageURL)
	if errors.Is(err, parser.ErrNoArticle) {
		return nil, apperr.Parse("No readable text found on the landing page", err)
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func updateLine(it feeder.FeedItem) string {
	var b strings.Builder
	b.WriteString("- ")
	if !it.PublishedAt.IsZero() {
		b.WriteString(it.PublishedAt.Format("2006-01-02"))
		b.WriteString(" ")
	}
	b.WriteString(strings.TrimSpace(it.Title))
	if s := plainSummary(it.Summary); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	b.WriteString("\n")
	return b.String()
}

// 피드 요약은 HTML 일 수 있다. 한 줄로 줄이고 길면 자른다.
func plainSummary(s string) string {
	return clip(parser.PlainText(s), 200)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "…"
}
