package sources

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"novara/browser"
	"novara/content"
	"novara/search"
)

// Options carries the shared dependencies a crawler is constructed
// with. Search mode strips the browser so no source pays headless
// Chromium startup costs just to answer a query.
type Options struct {
	Client    *http.Client
	Browser   *browser.Browser
	Extractor *content.Extractor
	Storage   *BoltStorage
	Logger    *zap.Logger
	UserAgent string
}

// Factory builds a crawler bound to the link it was resolved from, so
// mirror hosts keep their own base URL.
type Factory func(link string, opts Options) search.Crawler

type entry struct {
	name    string
	hosts   []string
	factory Factory
}

// Registry maps hostnames to source implementations. Several hosts may
// share one entry (mirrors); resolving any of them yields crawlers
// with the same name.
type Registry struct {
	opts   Options
	byHost map[string]*entry
}

func NewRegistry(opts Options) *Registry {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Novara/1.0"
	}

	r := &Registry{
		opts:   opts,
		byHost: make(map[string]*entry),
	}
	r.Register("fanmtl", []string{"fanmtl.com", "www.fanmtl.com", "m.fanmtl.com"}, NewFanMTL)
	r.Register("novelbin", []string{"novelbin.com", "www.novelbin.com", "novelbin.me"}, NewNovelBin)
	r.Register("webnovel", []string{"webnovel.com", "www.webnovel.com"}, NewWebnovel)
	return r
}

// Register adds a source under every host it is reachable at.
func (r *Registry) Register(name string, hosts []string, factory Factory) {
	e := &entry{name: name, hosts: hosts, factory: factory}
	for _, host := range hosts {
		r.byHost[host] = e
	}
}

// Resolve returns a search-mode crawler for the link, or nil when no
// registered source matches its hostname. Browser automation is
// disabled on the returned crawler.
func (r *Registry) Resolve(link string) search.Crawler {
	e := r.lookup(link)
	if e == nil {
		return nil
	}
	opts := r.opts
	opts.Browser = nil
	return e.factory(link, opts)
}

// ResolveFull is like Resolve but keeps the browser attached. The
// download path uses it for sources that render chapters client-side.
func (r *Registry) ResolveFull(link string) search.Crawler {
	e := r.lookup(link)
	if e == nil {
		return nil
	}
	return e.factory(link, r.opts)
}

func (r *Registry) lookup(link string) *entry {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	return r.byHost[u.Hostname()]
}
