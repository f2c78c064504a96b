package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"novara/search"
)

const webnovelMaxPages = 3

// Webnovel talks to the webnovel search API, which paginates JSON
// instead of serving HTML listings.
type Webnovel struct {
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
	userAgent string
}

type webnovelResponse struct {
	Code int `json:"code"`
	Data struct {
		IsLast int `json:"isLast"`
		Items  []struct {
			BookID   string `json:"bookId"`
			BookName string `json:"bookName"`
		} `json:"items"`
	} `json:"data"`
}

func NewWebnovel(link string, opts Options) search.Crawler {
	return &Webnovel{
		baseURL:   strings.TrimRight(link, "/"),
		client:    opts.Client,
		logger:    opts.Logger,
		userAgent: opts.UserAgent,
	}
}

func (w *Webnovel) Name() string { return "webnovel" }

func (w *Webnovel) SearchNovel(ctx context.Context, query string) search.Hits {
	return newPagedHits(webnovelMaxPages, func(page int) ([]search.RawHit, error) {
		params := url.Values{}
		params.Set("keywords", query)
		params.Set("pageIndex", strconv.Itoa(page))
		apiURL := w.baseURL + "/go/pcm/search/result?" + params.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("webnovel: %w", err)
		}
		req.Header.Set("User-Agent", w.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("webnovel: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("webnovel: API returned status %d", resp.StatusCode)
		}

		var searchResp webnovelResponse
		if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
			return nil, fmt.Errorf("webnovel: decode response: %w", err)
		}
		if searchResp.Code != 0 {
			return nil, fmt.Errorf("webnovel: API returned code %d", searchResp.Code)
		}

		hits := make([]search.RawHit, 0, len(searchResp.Data.Items))
		for _, item := range searchResp.Data.Items {
			hits = append(hits, search.RawHit{
				Title: item.BookName,
				URL:   w.baseURL + "/book/" + item.BookID,
			})
		}
		return hits, nil
	})
}
