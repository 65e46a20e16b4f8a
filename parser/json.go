// Package parser turns free-form backend replies into typed values and
// cleans generated captions.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no balanced, valid JSON span exists in the text.
var ErrNoJSON = errors.New("no JSON found in response")

const (
	// maxScanBytes bounds how much of a reply is scanned.
	maxScanBytes = 1 << 20
	// maxCandidates bounds how many opening brackets are tried.
	maxCandidates = 64
)

var fencePattern = regexp.MustCompile("```(?:json|JSON)?[ \t]*\r?\n?")

// StripFences removes markdown code fence markers, keeping their content.
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

type span struct {
	start, end int // end is exclusive
}

// matchBalanced scans from s[start] (an opening bracket) to its matching
// closer. Brackets inside string literals are ignored and escapes are honoured.
func matchBalanced(s string, start int) (int, bool) {
	stack := make([]byte, 0, 16)
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// validSpans returns the balanced spans opening with one of opens that are
// valid JSON, in order of appearance. Spans nested in an earlier valid span
// are not reported separately.
func validSpans(text, opens string) []span {
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}
	var out []span
	tried := 0
	for pos := 0; pos < len(text) && tried < maxCandidates; {
		i := strings.IndexAny(text[pos:], opens)
		if i < 0 {
			break
		}
		i += pos
		tried++
		end, ok := matchBalanced(text, i)
		if ok && json.Valid([]byte(text[i:end])) {
			out = append(out, span{start: i, end: end})
			pos = end
			continue
		}
		pos = i + 1
	}
	return out
}

// ExtractObject returns the first balanced, valid {...} span.
func ExtractObject(text string) (string, error) {
	text = StripFences(text)
	spans := validSpans(text, "{")
	if len(spans) == 0 {
		return "", ErrNoJSON
	}
	return text[spans[0].start:spans[0].end], nil
}

// ExtractArray returns the first balanced, valid [...] span.
func ExtractArray(text string) (string, error) {
	text = StripFences(text)
	spans := validSpans(text, "[")
	if len(spans) == 0 {
		return "", ErrNoJSON
	}
	return text[spans[0].start:spans[0].end], nil
}

// DecodeObject decodes the first JSON object found in text into T.
func DecodeObject[T any](text string) (T, error) {
	var zero T
	raw, err := ExtractObject(text)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, fmt.Errorf("decode JSON object: %w", err)
	}
	return out, nil
}

// DecodeList decodes the first JSON array of T found in text. A reply that
// holds a single object instead of an array is accepted as a one-item list.
func DecodeList[T any](text string) ([]T, error) {
	text = StripFences(text)
	var lastErr error
	for _, sp := range validSpans(text, "{[") {
		raw := []byte(text[sp.start:sp.end])
		if raw[0] == '[' {
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				lastErr = err
				continue
			}
			if len(items) == 0 {
				continue
			}
			return items, nil
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			lastErr = err
			continue
		}
		return []T{item}, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("decode JSON list: %w", lastErr)
	}
	return nil, ErrNoJSON
}
