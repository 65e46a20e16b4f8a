package parser

import (
	"regexp"
	"strings"
)

var (
	clichePattern      = regexp.MustCompile(`(?i)\b(elevate|unlock|dive into|unleash|game.?changer|seamlessly|revolutionize|empower|leverage|cutting.?edge|next.?level)\b`)
	multiSpacePattern  = regexp.MustCompile(` {2,}`)
	spaceBeforePunct   = regexp.MustCompile(` ([,.!?;:])`)
	commaBeforePunct   = regexp.MustCompile(`,([,.!?;:])`)
	lineLeadingPattern = regexp.MustCompile(`(?m)^[ ,;:]+`)
	lineTrailingSpace  = regexp.MustCompile(`(?m) +$`)
	lineTrailingComma  = regexp.MustCompile(`(?m),+$`)
)

// SanitizeCaption removes dashes and cliché marketing words and tidies the
// spacing left behind. Newlines are preserved. The result is a fixed point:
// SanitizeCaption(SanitizeCaption(s)) == SanitizeCaption(s).
func SanitizeCaption(s string) string {
	// every step only shortens the string, so the loop terminates
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = strings.ReplaceAll(s, "—", ",")
	s = strings.ReplaceAll(s, "–", "-")
	s = clichePattern.ReplaceAllString(s, "")
	s = multiSpacePattern.ReplaceAllString(s, " ")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = commaBeforePunct.ReplaceAllString(s, "$1")
	s = lineLeadingPattern.ReplaceAllString(s, "")
	s = lineTrailingSpace.ReplaceAllString(s, "")
	s = lineTrailingComma.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeHashtags strips leading '#', spaces and duplicates from generated tags.
func SanitizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		t = strings.ReplaceAll(t, " ", "")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
