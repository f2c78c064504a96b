package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"novara/search"
)

// SearchHandlers starts search sessions and lets callers poll their
// progress. Results are only present once progress reaches 100, which
// is how a caller tells "still running" from "done with no matches".
// A completed session is retired on the poll that delivers its
// results, so the session map stays bounded.
type SearchHandlers struct {
	engine *search.Engine
	links  []string
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*search.Session
}

func NewSearchHandlers(engine *search.Engine, links []string, logger *zap.Logger) *SearchHandlers {
	return &SearchHandlers{
		engine:   engine,
		links:    links,
		logger:   logger,
		sessions: make(map[string]*search.Session),
	}
}

type StartSearchRequest struct {
	Query string `json:"query"`
}

type StartSearchResponse struct {
	SessionID string `json:"session_id"`
}

type ProgressResponse struct {
	SessionID string                  `json:"session_id"`
	Progress  int                     `json:"progress"`
	Results   []search.CombinedResult `json:"results,omitempty"`
}

// StartSearchHandler kicks off a session and returns its id. The
// session runs detached from the request context so polling keeps
// working after this response is written.
func (h *SearchHandlers) StartSearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StartSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Not r.Context(): the session outlives this request.
	session := h.engine.Search(context.Background(), req.Query, h.links)

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	h.logger.Info("search session started",
		zap.String("session_id", session.ID),
		zap.String("query", req.Query))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StartSearchResponse{SessionID: session.ID})
}

// ProgressHandler reports a session's progress and, once it is done,
// its results.
func (h *SearchHandlers) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	session, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	resp := ProgressResponse{
		SessionID: session.ID,
		Progress:  session.Progress(),
	}
	select {
	case <-session.Done():
		resp.Results = session.Results()
		h.mu.Lock()
		delete(h.sessions, id)
		h.mu.Unlock()
	default:
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
