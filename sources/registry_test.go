package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"novara/browser"
)

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(Options{Logger: zap.NewNop()})

	testCases := []struct {
		name     string
		link     string
		expected string
	}{
		{"KnownHost", "https://www.fanmtl.com/", "fanmtl"},
		{"MirrorHost", "https://m.fanmtl.com/some/path", "fanmtl"},
		{"OtherSource", "https://novelbin.com/", "novelbin"},
		{"APISource", "https://www.webnovel.com/", "webnovel"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			crawler := r.Resolve(tc.link)
			require.NotNil(t, crawler)
			assert.Equal(t, tc.expected, crawler.Name())
		})
	}
}

func TestRegistry_ResolveUnknownHost(t *testing.T) {
	r := NewRegistry(Options{})
	assert.Nil(t, r.Resolve("https://unknown-site.example/"))
	assert.Nil(t, r.Resolve("://not-a-url"))
}

func TestRegistry_MirrorsShareOneImplementation(t *testing.T) {
	r := NewRegistry(Options{})
	a := r.Resolve("https://fanmtl.com/")
	b := r.Resolve("https://www.fanmtl.com/")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Name(), b.Name())
}

func TestRegistry_SearchModeStripsBrowser(t *testing.T) {
	b := browser.NewBrowser(zap.NewNop(), "")
	r := NewRegistry(Options{Browser: b})

	searchCrawler, ok := r.Resolve("https://fanmtl.com/").(*FanMTL)
	require.True(t, ok)
	assert.Nil(t, searchCrawler.browser)

	fullCrawler, ok := r.ResolveFull("https://fanmtl.com/").(*FanMTL)
	require.True(t, ok)
	assert.NotNil(t, fullCrawler.browser)
}

func TestRegistry_ResolvedCrawlerKeepsItsLink(t *testing.T) {
	r := NewRegistry(Options{})
	crawler, ok := r.Resolve("https://m.fanmtl.com/").(*FanMTL)
	require.True(t, ok)
	assert.Equal(t, "https://m.fanmtl.com", crawler.baseURL)
}
