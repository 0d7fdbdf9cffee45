package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/filter"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/middleware"
)

type SearchResponse struct {
	Query     string          `json:"query"`
	Returned  int             `json:"returned"`
	Results   []engine.Result `json:"results"`
	LatencyMs float64         `json:"latency_ms"`
	RequestID string          `json:"request_id,omitempty"`
}

type FilterRequest struct {
	Conditions []filter.Condition `json:"conditions"`
	Limit      int                `json:"limit,omitempty"`
}

type FilterResponse struct {
	Matched int             `json:"matched"`
	Records []record.Record `json:"records"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	opts, err := s.searchOptions(q)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := s.deps.Fields
	if f := q.Get("fields"); f != "" {
		fields = splitList(f)
	}

	results, err := s.deps.Engine.Search(s.deps.Records, query, fields, opts)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if r.Context().Err() != nil {
		s.writeError(w, http.StatusServiceUnavailable, "request deadline exceeded")
		return
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     query,
		Returned:  len(results),
		Results:   results,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// searchOptions maps limit, fuzzy, case, highlight and sort query
// parameters onto engine options. limit is clamped to the configured
// maximum.
func (s *Server) searchOptions(q map[string][]string) (engine.Options, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	opts := engine.Options{MaxResults: s.cfg.DefaultLimit}
	if v := get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New("limit must be a positive integer")
		}
		opts.MaxResults = min(n, s.cfg.MaxLimit)
	}
	if v := get("fuzzy"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 1 {
			return opts, errors.New("fuzzy must be a number within [0,1]")
		}
		opts.FuzzyThreshold = engine.Float(t)
	}
	for name, dst := range map[string]*bool{"case": &opts.CaseSensitive, "highlight": &opts.HighlightMatches} {
		if v := get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(name + " must be a boolean")
			}
			*dst = b
		}
	}
	switch get("sort") {
	case "", "relevance":
	case "position":
		opts.SortByRelevance = engine.Bool(false)
	default:
		return opts, errors.New("sort must be relevance or position")
	}
	return opts, nil
}

func (s *Server) filter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid filter request: "+err.Error())
		return
	}
	matched, err := filter.Apply(s.deps.Records, req.Conditions, s.deps.Filter)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	resp := FilterResponse{Matched: len(matched), Records: matched}
	if req.Limit > 0 && len(matched) > req.Limit {
		resp.Records = matched[:req.Limit]
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter 'field' is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"field":       field,
		"suggestions": s.deps.Engine.FieldSuggestions(s.deps.Records, field, limit),
	})
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Engine.CacheStats())
}

func (s *Server) cacheClear(w http.ResponseWriter, r *http.Request) {
	s.deps.Engine.ClearCache()
	s.logger.Info("query cache cleared", "request_id", middleware.GetRequestID(r.Context()))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) performance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Engine.PerformanceMetrics())
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidOperand), errors.Is(err, apperrors.ErrUnknownOperator):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrStaleIndex), errors.Is(err, apperrors.ErrIndexNotBuilt):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
