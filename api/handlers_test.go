package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"novara/search"
)

type stubCrawler struct {
	name string
	hits []search.RawHit
}

func (s *stubCrawler) Name() string { return s.name }

func (s *stubCrawler) SearchNovel(_ context.Context, _ string) search.Hits {
	return search.NewSliceHits(s.hits, nil)
}

func testHandlers() *SearchHandlers {
	resolver := search.ResolverFunc(func(link string) search.Crawler {
		if link != "https://a.com/" {
			return nil
		}
		return &stubCrawler{
			name: "a",
			hits: []search.RawHit{{Title: "Some Novel", URL: "https://a.com/1"}},
		}
	})
	engine := search.NewEngine(resolver, zap.NewNop(), nil)
	return NewSearchHandlers(engine, []string{"https://a.com/"}, zap.NewNop())
}

func startSearch(t *testing.T, h *SearchHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.StartSearchHandler(rec, req)
	return rec
}

func TestSearchHandlers_FullRoundTrip(t *testing.T) {
	h := testHandlers()

	rec := startSearch(t, h, `{"query":"novel"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var started StartSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.SessionID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/search/progress?id="+started.SessionID, nil)
		rec := httptest.NewRecorder()
		h.ProgressHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var progress ProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
		if progress.Progress == 100 && progress.Results != nil {
			require.Len(t, progress.Results, 1)
			assert.Equal(t, "some-novel", progress.Results[0].ID)
			return
		}
		require.True(t, time.Now().Before(deadline), "session never completed")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSearchHandlers_RetiresCompletedSession(t *testing.T) {
	h := testHandlers()

	rec := startSearch(t, h, `{"query":"novel"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var started StartSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/search/progress?id="+started.SessionID, nil)
		rec := httptest.NewRecorder()
		h.ProgressHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var progress ProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
		if progress.Results != nil {
			break
		}
		require.True(t, time.Now().Before(deadline), "session never completed")
		time.Sleep(5 * time.Millisecond)
	}

	req := httptest.NewRequest(http.MethodGet, "/search/progress?id="+started.SessionID, nil)
	afterRec := httptest.NewRecorder()
	h.ProgressHandler(afterRec, req)
	assert.Equal(t, http.StatusNotFound, afterRec.Code)
}

func TestSearchHandlers_EmptyQueryCompletesAtOnce(t *testing.T) {
	h := testHandlers()

	rec := startSearch(t, h, `{"query":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var started StartSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	req := httptest.NewRequest(http.MethodGet, "/search/progress?id="+started.SessionID, nil)
	progressRec := httptest.NewRecorder()
	h.ProgressHandler(progressRec, req)

	var progress ProgressResponse
	require.NoError(t, json.Unmarshal(progressRec.Body.Bytes(), &progress))
	assert.Equal(t, 100, progress.Progress)
	assert.Empty(t, progress.Results)
}

func TestSearchHandlers_BadRequests(t *testing.T) {
	h := testHandlers()

	rec := startSearch(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	getRec := httptest.NewRecorder()
	h.StartSearchHandler(getRec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, getRec.Code)

	req = httptest.NewRequest(http.MethodGet, "/search/progress?id=nope", nil)
	missingRec := httptest.NewRecorder()
	h.ProgressHandler(missingRec, req)
	assert.Equal(t, http.StatusNotFound, missingRec.Code)

	req = httptest.NewRequest(http.MethodGet, "/search/progress", nil)
	noIDRec := httptest.NewRecorder()
	h.ProgressHandler(noIDRec, req)
	assert.Equal(t, http.StatusBadRequest, noIDRec.Code)
}
