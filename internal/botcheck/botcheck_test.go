package botcheck_test

import (
	"testing"

	"github.com/go-xlan/redis-sess-suo/internal/botcheck"
	"github.com/stretchr/testify/require"
)

func TestIsBotRegexMatches(t *testing.T) {
	classifier := botcheck.New(nil)

	require.True(t, classifier.IsBot(""))
	require.True(t, classifier.IsBot("Mozilla/5.0 (compatible; Googlebot/2.1)"))
	require.True(t, classifier.IsBot("curl/8.4.0"))
	require.True(t, classifier.IsBot("facebookexternalhit/1.1"))
	require.False(t, classifier.IsBot("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"))
}

func TestIsBotOverrideWins(t *testing.T) {
	var seenUA string
	var seenVerdict bool

	classifier := botcheck.New(func(userAgent string, regexVerdict bool) bool {
		seenUA = userAgent
		seenVerdict = regexVerdict
		return !regexVerdict // flip everything
	})

	require.False(t, classifier.IsBot("Googlebot"))
	require.Equal(t, "Googlebot", seenUA)
	require.True(t, seenVerdict)

	require.True(t, classifier.IsBot("a normal browser"))
}
