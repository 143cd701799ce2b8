package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"dom-search/internal/embedding"
	"dom-search/internal/fetcher"
	"dom-search/internal/models"
	"dom-search/internal/search"
	"dom-search/internal/store"
)

// Searcher is the pipeline entry point the server depends on.
type Searcher interface {
	Search(ctx context.Context, url, query string) ([]models.SearchResult, error)
}

// Server exposes the search pipeline over HTTP.
type Server struct {
	engine   *gin.Engine
	searcher Searcher
	ready    func() bool
}

// SearchRequest is the inbound request body.
type SearchRequest struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

// SearchResponse wraps the ranked results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// ErrorResponse carries a human-readable failure detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// New wires the routes. The ready func gates the health endpoint on the
// embedding model having loaded.
func New(searcher Searcher, ready func() bool, allowedOrigins []string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	engine.Use(corsMiddleware(allowedOrigins))

	s := &Server{engine: engine, searcher: searcher, ready: ready}

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST("/api/search", s.handleSearch)

	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting HTTP server")
	return s.engine.Run(addr)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSearch(c *gin.Context) {
	start := time.Now()

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observeSearch("validation", time.Since(start))
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	results, err := s.searcher.Search(c.Request.Context(), req.URL, req.Query)
	if err != nil {
		stage := search.Stage(err)
		observeSearch(stage, time.Since(start))
		log.Error().Err(err).Str("stage", stage).Str("url", req.URL).Msg("Search failed")
		c.JSON(statusFor(err), ErrorResponse{Detail: err.Error()})
		return
	}

	observeSearch("ok", time.Since(start))
	c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// statusFor maps pipeline errors onto HTTP statuses. Validation, fetch and
// extraction problems are the caller's to correct, embedding and store
// failures mean the service itself is degraded.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidInput),
		errors.Is(err, fetcher.ErrFetch),
		errors.Is(err, search.ErrNoContent):
		return http.StatusBadRequest
	case errors.Is(err, embedding.ErrEmbedding):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request")
	}
}

// corsMiddleware admits the configured dev UI origins.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
