package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-pilot/parser"
)

const landingPage = `<!DOCTYPE html>
<html><head><title>Penny - budgeting for freelancers</title></head>
<body>
<nav><a href="/">Home</a><a href="/pricing">Pricing</a></nav>
<article>
<h1>Penny keeps freelance income predictable</h1>
<p>Penny is a budgeting app built for freelancers whose income changes every month. It splits every payment into taxes, savings and spending the moment it lands, so you always know what is safe to spend.</p>
<p>Connect your bank once and Penny sorts invoices, flags late payers and keeps a running tax estimate. No spreadsheets, no surprises at the end of the quarter, and no guessing how much of the last invoice is really yours.</p>
<p>Thousands of designers, developers and writers use Penny to stop worrying about irregular income and to plan months ahead with confidence.</p>
</article>
<footer>Copyright Penny</footer>
</body></html>`

func TestParseArticle(t *testing.T) {
	article, err := parser.ParseArticle(landingPage, "https://penny.example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, article.Extractor)
	assert.True(t, strings.Contains(article.Text, "budgeting app built for freelancers"))
}

func TestParseArticleEmptyDocument(t *testing.T) {
	_, err := parser.ParseArticle("<html><body></body></html>", "")
	assert.ErrorIs(t, err, parser.ErrNoArticle)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "plain text", parser.StripTags("plain text"))
	got := strings.Join(strings.Fields(parser.StripTags("<p>Snap <b>receipts</b> &amp; go</p>")), " ")
	assert.Equal(t, "Snap receipts & go", got)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Quarterly estimates", want: "Quarterly estimates"},
		{name: "tag before period", in: "<p>Snap <b>receipts</b>.</p>", want: "Snap receipts."},
		{name: "multiline", in: "<ul><li>one</li>\n<li>two</li></ul>", want: "one two"},
		{name: "punctuation run", in: "<i>fast</i> , <i>cheap</i> !", want: "fast, cheap!"},
		{name: "empty", in: "<br/>", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.PlainText(tt.in))
		})
	}
}
