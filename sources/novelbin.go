package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"novara/search"
)

// NovelBin queries the novelbin search page through a colly collector.
// When a bolt storage is configured the collector persists its cookie
// jar across searches.
type NovelBin struct {
	baseURL   string
	storage   *BoltStorage
	logger    *zap.Logger
	userAgent string
}

func NewNovelBin(link string, opts Options) search.Crawler {
	return &NovelBin{
		baseURL:   strings.TrimRight(link, "/"),
		storage:   opts.Storage,
		logger:    opts.Logger,
		userAgent: opts.UserAgent,
	}
}

func (n *NovelBin) Name() string { return "novelbin" }

func (n *NovelBin) SearchNovel(ctx context.Context, query string) search.Hits {
	return newLazyHits(func() ([]search.RawHit, error) {
		c := colly.NewCollector(
			colly.UserAgent(n.userAgent),
			colly.AllowURLRevisit(),
			colly.StdlibContext(ctx),
		)
		if n.storage != nil {
			if err := c.SetStorage(n.storage.ForSource(n.Name())); err != nil {
				return nil, fmt.Errorf("novelbin: storage: %w", err)
			}
		}

		var hits []search.RawHit
		c.OnHTML("div.list h3.novel-title > a", func(el *colly.HTMLElement) {
			hits = append(hits, search.RawHit{
				Title: strings.TrimSpace(el.Text),
				URL:   el.Request.AbsoluteURL(el.Attr("href")),
			})
		})

		var fetchErr error
		c.OnError(func(r *colly.Response, err error) {
			n.logger.Warn("novelbin request failed",
				zap.String("url", r.Request.URL.String()),
				zap.Error(err))
			fetchErr = err
		})

		searchURL := fmt.Sprintf("%s/search?keyword=%s", n.baseURL, url.QueryEscape(query))
		if err := c.Visit(searchURL); err != nil {
			return nil, fmt.Errorf("novelbin: %w", err)
		}
		c.Wait()
		if fetchErr != nil {
			return nil, fmt.Errorf("novelbin: %w", fetchErr)
		}
		return hits, nil
	})
}
