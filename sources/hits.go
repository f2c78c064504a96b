package sources

import "novara/search"

// lazyHits defers the fetch until the first Next call, so building a
// crawler stays free of network I/O.
type lazyHits struct {
	fetch   func() ([]search.RawHit, error)
	started bool
	hits    []search.RawHit
	pos     int
	err     error
}

func newLazyHits(fetch func() ([]search.RawHit, error)) search.Hits {
	return &lazyHits{fetch: fetch, pos: -1}
}

func (l *lazyHits) Next() bool {
	if !l.started {
		l.started = true
		l.hits, l.err = l.fetch()
	}
	if l.err != nil || l.pos+1 >= len(l.hits) {
		return false
	}
	l.pos++
	return true
}

func (l *lazyHits) Hit() search.RawHit { return l.hits[l.pos] }

func (l *lazyHits) Err() error { return l.err }

// pagedHits walks a paginated upstream one page at a time, stopping at
// the first empty page or fetch error.
type pagedHits struct {
	fetchPage func(page int) ([]search.RawHit, error)
	maxPages  int
	page      int
	hits      []search.RawHit
	pos       int
	err       error
}

func newPagedHits(maxPages int, fetchPage func(page int) ([]search.RawHit, error)) search.Hits {
	return &pagedHits{fetchPage: fetchPage, maxPages: maxPages, pos: -1}
}

func (p *pagedHits) Next() bool {
	if p.err != nil {
		return false
	}
	if p.pos+1 < len(p.hits) {
		p.pos++
		return true
	}
	for p.page < p.maxPages {
		p.page++
		p.hits, p.err = p.fetchPage(p.page)
		p.pos = -1
		if p.err != nil || len(p.hits) == 0 {
			return false
		}
		p.pos = 0
		return true
	}
	return false
}

func (p *pagedHits) Hit() search.RawHit { return p.hits[p.pos] }

func (p *pagedHits) Err() error { return p.err }
