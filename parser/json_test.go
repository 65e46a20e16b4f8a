package parser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-pilot/parser"
)

type item struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

func TestExtractObject(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced",
			in:   "```json\n{\"caption\": \"hi\"}\n```",
			want: `{"caption": "hi"}`,
		},
		{
			name: "preamble and trailing text",
			in:   "Sure! Here is the result:\n{\"a\": 1}\nLet me know.",
			want: `{"a": 1}`,
		},
		{
			name: "braces inside strings",
			in:   `{"caption": "use {curly} and } closers", "n": {"x": "]"}}`,
			want: `{"caption": "use {curly} and } closers", "n": {"x": "]"}}`,
		},
		{
			name: "escaped quotes",
			in:   `noise {"caption": "she said \"{hi}\"", "ok": true} tail`,
			want: `{"caption": "she said \"{hi}\"", "ok": true}`,
		},
		{
			name: "skips invalid leading span",
			in:   `{draft} then {"a": [1, 2]}`,
			want: `{"a": [1, 2]}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parser.ExtractObject(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractObjectNoJSON(t *testing.T) {
	for _, in := range []string{"", "no braces here", `{"unterminated": "x"`, "{not json}"} {
		_, err := parser.ExtractObject(in)
		assert.True(t, errors.Is(err, parser.ErrNoJSON), in)
	}
}

func TestExtractArray(t *testing.T) {
	got, err := parser.ExtractArray("```\n[{\"caption\": \"a]\"}, {\"caption\": \"b\"}]\n```")
	require.NoError(t, err)
	assert.Equal(t, `[{"caption": "a]"}, {"caption": "b"}]`, got)
}

func TestDecodeObject(t *testing.T) {
	v, err := parser.DecodeObject[item]("Here you go ```json\n{\"caption\": \"Hello\", \"hashtags\": [\"a\", \"b\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, item{Caption: "Hello", Hashtags: []string{"a", "b"}}, v)
}

func TestDecodeList(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		items, err := parser.DecodeList[item](`[{"caption": "one"}, {"caption": "two"}]`)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "two", items[1].Caption)
	})

	t.Run("single object accepted", func(t *testing.T) {
		items, err := parser.DecodeList[item](`{"caption": "only", "hashtags": ["x"]}`)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "only", items[0].Caption)
	})

	t.Run("skips unrelated array in preamble", func(t *testing.T) {
		items, err := parser.DecodeList[item](`Here are [2] posts: [{"caption": "a"}, {"caption": "b"}]`)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("nothing", func(t *testing.T) {
		_, err := parser.DecodeList[item]("I cannot help with that.")
		assert.True(t, errors.Is(err, parser.ErrNoJSON))
	})
}
