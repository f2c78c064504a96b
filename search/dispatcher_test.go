package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type mockCrawler struct {
	name  string
	hits  []RawHit
	err   error
	delay time.Duration

	calls       *atomic.Int32
	inFlight    *atomic.Int32
	maxInFlight *atomic.Int32
}

func (m *mockCrawler) Name() string { return m.name }

func (m *mockCrawler) SearchNovel(_ context.Context, _ string) Hits {
	if m.calls != nil {
		m.calls.Add(1)
	}
	if m.inFlight != nil {
		current := m.inFlight.Add(1)
		for {
			observed := m.maxInFlight.Load()
			if current <= observed || m.maxInFlight.CompareAndSwap(observed, current) {
				break
			}
		}
		defer m.inFlight.Add(-1)
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return NewSliceHits(m.hits, m.err)
}

func mapResolver(byLink map[string]Crawler) Resolver {
	return ResolverFunc(func(link string) Crawler { return byLink[link] })
}

func testEngine(resolver Resolver) *Engine {
	return NewEngine(resolver, zap.NewNop(), nil)
}

// --- Tests ---

func TestSearch_QueriesEachSourceExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	crawler := &mockCrawler{
		name:  "fanmtl",
		hits:  []RawHit{{Title: "Some Novel", URL: "https://fanmtl.com/1"}},
		calls: &calls,
	}

	// Ten mirror links, all resolving to the same implementation.
	byLink := make(map[string]Crawler)
	var links []string
	for _, host := range []string{
		"https://fanmtl.com/", "https://www.fanmtl.com/", "https://m.fanmtl.com/",
		"https://fanmtl.org/", "https://fanmtl.net/", "https://fanmtl.io/",
		"https://mirror1.fanmtl.com/", "https://mirror2.fanmtl.com/",
		"https://mirror3.fanmtl.com/", "https://mirror4.fanmtl.com/",
	} {
		byLink[host] = crawler
		links = append(links, host)
	}

	engine := testEngine(mapResolver(byLink))
	results := engine.SearchAndWait(context.Background(), "novel", links)

	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, results, 1)
	assert.Equal(t, "some-novel", results[0].ID)
}

func TestSearch_FailingSourceIsIsolated(t *testing.T) {
	byLink := map[string]Crawler{
		"https://broken.com/": &mockCrawler{name: "broken", err: errors.New("connection refused")},
		"https://a.com/":      &mockCrawler{name: "a", hits: []RawHit{{Title: "Kept Novel", URL: "https://a.com/1"}}},
		"https://b.com/":      &mockCrawler{name: "b", hits: []RawHit{{Title: "Kept Novel", URL: "https://b.com/1"}}},
	}

	engine := testEngine(mapResolver(byLink))
	session := engine.Search(context.Background(), "kept", []string{
		"https://broken.com/", "https://a.com/", "https://b.com/",
	})
	<-session.Done()

	assert.Equal(t, 100, session.Progress())
	results := session.Results()
	require.Len(t, results, 1)
	assert.Len(t, results[0].Novels, 2)
}

func TestSearch_EmptyQueryDispatchesNothing(t *testing.T) {
	var calls atomic.Int32
	byLink := map[string]Crawler{
		"https://a.com/": &mockCrawler{name: "a", calls: &calls},
	}

	engine := testEngine(mapResolver(byLink))
	session := engine.Search(context.Background(), "  ", []string{"https://a.com/"})
	<-session.Done()

	assert.Equal(t, 100, session.Progress())
	assert.Empty(t, session.Results())
	assert.Equal(t, int32(0), calls.Load())
}

func TestSearch_EmptyLinkSetCompletesImmediately(t *testing.T) {
	engine := testEngine(mapResolver(nil))
	session := engine.Search(context.Background(), "novel", nil)
	<-session.Done()

	assert.Equal(t, 100, session.Progress())
	assert.Empty(t, session.Results())
}

func TestSearch_UnresolvedLinksAreSkipped(t *testing.T) {
	byLink := map[string]Crawler{
		"https://known.com/": &mockCrawler{name: "known", hits: []RawHit{{Title: "Known Novel", URL: "https://known.com/1"}}},
	}

	engine := testEngine(mapResolver(byLink))
	results := engine.SearchAndWait(context.Background(), "novel", []string{
		"https://unknown.com/", "https://known.com/", "https://also-unknown.com/",
	})

	require.Len(t, results, 1)
	assert.Equal(t, "known-novel", results[0].ID)
}

func TestSearch_DropsInvalidHits(t *testing.T) {
	byLink := map[string]Crawler{
		"https://a.com/": &mockCrawler{name: "a", hits: []RawHit{
			{Title: "", URL: "https://a.com/1"},
			{Title: "No URL Novel", URL: ""},
			{Title: "valid novel title", URL: "https://a.com/2"},
		}},
	}

	engine := testEngine(mapResolver(byLink))
	results := engine.SearchAndWait(context.Background(), "novel", []string{"https://a.com/"})

	require.Len(t, results, 1)
	require.Len(t, results[0].Novels, 1)
	assert.Equal(t, "Valid Novel Title", results[0].Title)
}

func TestSearch_BoundsConcurrency(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32

	byLink := make(map[string]Crawler)
	var links []string
	for i := range 30 {
		link := "https://site" + string(rune('a'+i/10)) + string(rune('a'+i%10)) + ".com/"
		byLink[link] = &mockCrawler{
			name:        link,
			delay:       10 * time.Millisecond,
			inFlight:    &inFlight,
			maxInFlight: &maxInFlight,
		}
		links = append(links, link)
	}

	engine := NewEngine(mapResolver(byLink), zap.NewNop(), &Config{
		MaxWorkers:  5,
		TaskTimeout: time.Minute,
		MaxResults:  10,
	})
	engine.SearchAndWait(context.Background(), "novel", links)

	assert.LessOrEqual(t, maxInFlight.Load(), int32(5))
}

func TestSearch_ProgressIsMonotonic(t *testing.T) {
	byLink := make(map[string]Crawler)
	var links []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		link := "https://" + name + ".com/"
		byLink[link] = &mockCrawler{name: name, delay: 5 * time.Millisecond}
		links = append(links, link)
	}

	engine := testEngine(mapResolver(byLink))
	session := engine.Search(context.Background(), "novel", links)

	last := 0
	for {
		current := session.Progress()
		assert.GreaterOrEqual(t, current, last)
		last = current
		select {
		case <-session.Done():
			assert.Equal(t, 100, session.Progress())
			return
		case <-time.After(time.Millisecond):
		}
	}
}
