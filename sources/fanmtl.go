package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"novara/browser"
	"novara/content"
	"novara/search"
)

// FanMTL scrapes the fanmtl novel listing site. The search page is
// plain server-rendered HTML; chapter pages occasionally need the
// browser, so the download path attaches one when available.
type FanMTL struct {
	baseURL   string
	client    *http.Client
	browser   *browser.Browser
	extractor *content.Extractor
	logger    *zap.Logger
	userAgent string
}

func NewFanMTL(link string, opts Options) search.Crawler {
	return &FanMTL{
		baseURL:   strings.TrimRight(link, "/"),
		client:    opts.Client,
		browser:   opts.Browser,
		extractor: opts.Extractor,
		logger:    opts.Logger,
		userAgent: opts.UserAgent,
	}
}

func (f *FanMTL) Name() string { return "fanmtl" }

func (f *FanMTL) SearchNovel(ctx context.Context, query string) search.Hits {
	return newLazyHits(func() ([]search.RawHit, error) {
		searchURL := fmt.Sprintf("%s/search.html?searchkey=%s", f.baseURL, url.QueryEscape(query))
		doc, err := f.fetchDocument(ctx, searchURL)
		if err != nil {
			return nil, err
		}

		var hits []search.RawHit
		doc.Find("ul.novel-list li.novel-item a").Each(func(_ int, sel *goquery.Selection) {
			href := sel.AttrOr("href", "")
			title := strings.TrimSpace(sel.Find("h4.novel-title").Text())
			if title == "" {
				title = strings.TrimSpace(sel.AttrOr("title", ""))
			}
			hits = append(hits, search.RawHit{
				Title: title,
				URL:   f.absoluteURL(href),
			})
		})
		if len(hits) == 0 {
			f.logger.Debug("no hits on search page", zap.String("url", searchURL))
		}
		return hits, nil
	})
}

func (f *FanMTL) FetchNovel(ctx context.Context, novelURL string) (*Novel, error) {
	doc, err := f.fetchDocument(ctx, novelURL)
	if err != nil {
		return nil, err
	}

	novel := &Novel{
		Title:  strings.TrimSpace(doc.Find("h1.novel-title").First().Text()),
		Author: strings.TrimSpace(doc.Find("span[itemprop=author]").First().Text()),
		URL:    novelURL,
	}
	doc.Find("ul.chapter-list li a").Each(func(_ int, sel *goquery.Selection) {
		novel.Chapters = append(novel.Chapters, ChapterRef{
			Title: strings.TrimSpace(sel.Find(".chapter-title").Text()),
			URL:   f.absoluteURL(sel.AttrOr("href", "")),
		})
	})
	if novel.Title == "" {
		return nil, fmt.Errorf("fanmtl: no novel found at %s", novelURL)
	}
	return novel, nil
}

func (f *FanMTL) FetchChapter(ctx context.Context, ref ChapterRef) (*content.Chapter, error) {
	var pageHTML string
	var err error
	if f.browser != nil {
		// Some chapter bodies are injected client-side.
		pageHTML, err = f.browser.FetchHTML(ctx, ref.URL, ".chapter-content")
	} else {
		pageHTML, err = f.httpGet(ctx, ref.URL)
	}
	if err != nil {
		return nil, err
	}
	chapter, err := f.extractor.Extract(pageHTML, ref.URL)
	if err != nil {
		return nil, err
	}
	if chapter.Title == "" {
		chapter.Title = ref.Title
	}
	return chapter, nil
}

func (f *FanMTL) httpGet(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("fanmtl: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fanmtl: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fanmtl: %s returned status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fanmtl: %w", err)
	}
	return string(body), nil
}

func (f *FanMTL) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	pageHTML, err := f.httpGet(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("fanmtl: parse %s: %w", pageURL, err)
	}
	return doc, nil
}

func (f *FanMTL) absoluteURL(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(f.baseURL + "/")
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
