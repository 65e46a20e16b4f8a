package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/advancedlogic/GoOse/pkg/goose"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Article is the readable part of a landing page.
type Article struct {
	Title    string
	Text     string
	TopImage string
	// Extractor names the extractor that produced the text.
	Extractor string
}

var ErrNoArticle = errors.New("no readable text found")

// ParseArticle extracts the main text of a page, trying readability first,
// then trafilatura, then goose. The first non-empty result wins.
func ParseArticle(htmlStr, pageURL string) (*Article, error) {
	var base *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			base = u
		}
	}

	extractors := []struct {
		name string
		fn   func(string, *url.URL) (*Article, error)
	}{
		{"readability", ParseHtmlWithReadability},
		{"trafilatura", ParseHtmlWithTrafilatura},
		{"goose", ParseHtmlWithGoose},
	}

	var errs []error
	for _, ex := range extractors {
		article, err := ex.fn(htmlStr, base)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ex.name, err))
			continue
		}
		article.Text = strings.TrimSpace(article.Text)
		if article.Text == "" {
			continue
		}
		article.Extractor = ex.name
		return article, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoArticle, errors.Join(errs...))
	}
	return nil, ErrNoArticle
}

func ParseHtmlWithReadability(htmlStr string, pageURL *url.URL) (*Article, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil, err
	}

	article, err := readability.FromDocument(doc, pageURL)
	if err != nil {
		return nil, err
	}
	return &Article{
		Title:    article.Title,
		Text:     article.TextContent,
		TopImage: article.Image,
	}, nil
}

func ParseHtmlWithTrafilatura(htmlStr string, pageURL *url.URL) (*Article, error) {
	opts := trafilatura.Options{
		OriginalURL: pageURL,
	}

	article, err := trafilatura.Extract(strings.NewReader(htmlStr), opts)
	if err != nil {
		return nil, err
	}

	return &Article{
		Title:    article.Metadata.Title,
		Text:     article.ContentText,
		TopImage: article.Metadata.Image,
	}, nil
}

func ParseHtmlWithGoose(htmlStr string, pageURL *url.URL) (*Article, error) {
	rawURL := ""
	if pageURL != nil {
		rawURL = pageURL.String()
	}
	g := goose.New()
	article, err := g.ExtractFromRawHTML(htmlStr, rawURL)
	if err != nil {
		return nil, err
	}
	return &Article{
		Title:    article.Title,
		Text:     article.CleanedText,
		TopImage: article.TopImage,
	}, nil
}

// StripTags returns the text nodes of an HTML fragment. Plain text passes through.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

var plainSpaceBeforePunct = regexp.MustCompile(`\s+([.,;:!?)\]])`)

// PlainText strips tags from fragment and collapses it to a single line.
// Tag boundaries do not leave a space in front of punctuation.
func PlainText(fragment string) string {
	s := strings.Join(strings.Fields(StripTags(fragment)), " ")
	return plainSpaceBeforePunct.ReplaceAllString(s, "$1")
}
