package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/research"
	"github.com/JoseCortezz25/fact-checking-app/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Request limits for the public API; the CLI is not bound by them
const (
	maxDepth     = 4
	maxBreadth   = 6
	maxClaimLen  = 2000
	defaultLimit = 20
	maxLimit     = 100

	readyTimeout = 10 * time.Second
)

type factCheckRequest struct {
	Claim    string          `json:"claim"`
	Location *model.Location `json:"location,omitempty"`
	Date     string          `json:"date,omitempty"`
	Depth    *int            `json:"depth,omitempty"`
	Breadth  *int            `json:"breadth,omitempty"`
	Language string          `json:"language,omitempty"`
}

type listResponse struct {
	FactChecks []store.Summary `json:"factchecks"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.checker.Ready(ctx); err != nil {
		s.logger.Warn("not ready", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) factCheck(w http.ResponseWriter, r *http.Request) {
	var req factCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	claim, opts, err := s.parseRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res := s.checker.FactCheck(r.Context(), claim, opts)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) parseRequest(req factCheckRequest) (model.Claim, research.Options, error) {
	claim := model.Claim{Text: strings.TrimSpace(req.Claim)}
	opts := research.DefaultOptions(s.research)

	if claim.Text == "" {
		return claim, opts, errors.New("claim is required")
	}
	if len(claim.Text) > maxClaimLen {
		return claim, opts, fmt.Errorf("claim is longer than %d characters", maxClaimLen)
	}

	if req.Depth != nil {
		if *req.Depth < 0 || *req.Depth > maxDepth {
			return claim, opts, fmt.Errorf("depth must be between 0 and %d", maxDepth)
		}
		opts.Depth = *req.Depth
	}
	if req.Breadth != nil {
		if *req.Breadth < 1 || *req.Breadth > maxBreadth {
			return claim, opts, fmt.Errorf("breadth must be between 1 and %d", maxBreadth)
		}
		opts.Breadth = *req.Breadth
	}

	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return claim, opts, err
		}
		claim.Context.ReferenceDate = date
	}
	if !req.Location.IsZero() {
		claim.Context.Location = req.Location
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		opts.Language = lang
	}

	return claim, opts, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", s)
}

func (s *Server) getFactCheck(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "fact-check history is disabled")
		return
	}

	res, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "fact-check not found")
		return
	}
	if err != nil {
		s.logger.Error("history lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "could not load fact-check")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listFactChecks(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, listResponse{FactChecks: []store.Summary{}})
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("limit must be between 1 and %d", maxLimit))
			return
		}
		limit = n
	}

	items, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("history listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "could not list fact-checks")
		return
	}
	if items == nil {
		items = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, listResponse{FactChecks: items})
}
