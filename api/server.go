package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"novara/search"
)

// Server exposes the search engine over HTTP: a keep-alive health
// endpoint plus session start and progress polling.
type Server struct {
	handlers *SearchHandlers
	logger   *zap.Logger
	port     int
}

func NewServer(engine *search.Engine, links []string, logger *zap.Logger, port int) *Server {
	return &Server{
		handlers: NewSearchHandlers(engine, links, logger),
		logger:   logger,
		port:     port,
	}
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/search", s.handlers.StartSearchHandler)
	mux.HandleFunc("/search/progress", s.handlers.ProgressHandler)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.logger.Info("starting API server", zap.Int("port", s.port))
	return http.ListenAndServe(":"+strconv.Itoa(s.port), mux)
}
