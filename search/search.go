package search

import "context"

// RawHit is a single untrusted hit yielded by a source while searching.
type RawHit struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Result is a validated hit: non-empty title and url, plus the name of
// the source that produced it.
type Result struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// CombinedResult merges every Result that shares the same slug key.
// Novels are sorted ascending by url; Title is taken from the member
// with the smallest url.
type CombinedResult struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Novels []Result `json:"novels"`
}

// Hits is a finite lazy sequence of raw hits from one source. Err
// reports the first error encountered during iteration; a failed
// iteration simply ends early.
type Hits interface {
	Next() bool
	Hit() RawHit
	Err() error
}

// Crawler is the search capability of one source. Implementations are
// created per search call and must be safe to discard afterwards.
type Crawler interface {
	// Name identifies the implementation; mirror links resolve to
	// crawlers with the same name.
	Name() string
	SearchNovel(ctx context.Context, query string) Hits
}

// Resolver maps a source link to its crawler, or nil when no source
// matches. The lookup must have no observable side effects.
type Resolver interface {
	Resolve(link string) Crawler
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(link string) Crawler

func (f ResolverFunc) Resolve(link string) Crawler { return f(link) }

type sliceHits struct {
	hits []RawHit
	pos  int
	err  error
}

// NewSliceHits wraps an already fetched batch of hits (and the fetch
// error, if any) in the Hits interface.
func NewSliceHits(hits []RawHit, err error) Hits {
	return &sliceHits{hits: hits, pos: -1, err: err}
}

func (s *sliceHits) Next() bool {
	if s.pos+1 >= len(s.hits) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceHits) Hit() RawHit { return s.hits[s.pos] }

func (s *sliceHits) Err() error { return s.err }
