package twitter

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTweetChars = 280
	MaxHashtags   = 2
)

// Constrained is a post reshaped to fit a single tweet.
type Constrained struct {
	Content     string
	Hashtags    []string
	Text        string
	WasAdjusted bool
}

// NormalizeHashtags trims, strips one leading '#', drops empties and
// duplicates (first occurrence wins) and keeps at most MaxHashtags.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, MaxHashtags)
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxHashtags {
			break
		}
	}
	return out
}

func hashtagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return "\n\n" + strings.Join(parts, " ")
}

// BuildText joins the caption and hashtags the way they are posted.
func BuildText(content string, tags []string) string {
	return strings.TrimSpace(content) + hashtagSuffix(tags)
}

// Enforce fits content and hashtags into one tweet. Hashtags are dropped
// from the end first; the caption is cut only when no hashtag is left to drop.
// Lengths are counted in runes.
func Enforce(content string, rawTags []string) Constrained {
	c := Constrained{
		Content:  strings.TrimSpace(content),
		Hashtags: NormalizeHashtags(rawTags),
	}
	c.Text = BuildText(c.Content, c.Hashtags)

	for utf8.RuneCountInString(c.Text) > MaxTweetChars && len(c.Hashtags) > 0 {
		c.Hashtags = c.Hashtags[:len(c.Hashtags)-1]
		c.WasAdjusted = true
		c.Text = BuildText(c.Content, c.Hashtags)
	}

	if utf8.RuneCountInString(c.Text) > MaxTweetChars {
		budget := max(MaxTweetChars-utf8.RuneCountInString(hashtagSuffix(c.Hashtags)), 0)
		c.Content = strings.TrimRight(truncateRunes(c.Content, budget), " \t\r\n")
		c.WasAdjusted = true
		c.Text = BuildText(c.Content, c.Hashtags)
	}
	return c
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
