package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/fileid"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/pipeline"
	"github.com/hyperjump/yomu/internal/storage"
)

const (
	maxRequestBytes  = 1 << 20
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := models.ParseRequest(body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.input.DocumentsDir == "" {
		s.respondError(w, http.StatusServiceUnavailable, "input.documents_dir is not configured")
		return
	}
	s.logger.Debug("analyze request",
		zap.String("persona", req.Persona.Role),
		zap.Int("documents", len(req.Documents)),
	)

	res, err := s.analyzer.Run(r.Context(), pipeline.Input{
		Request:      req,
		DocumentsDir: s.input.DocumentsDir,
		OutlinesDir:  s.input.OutlinesDir,
		RequestKey:   fileid.ContentKey(body),
	})
	if err != nil {
		status := statusFor(err)
		s.metrics.RunsTotal.WithLabelValues(outcomeFor(status)).Inc()
		if status >= http.StatusInternalServerError {
			s.logger.Error("analyze failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}

	s.metrics.RunsTotal.WithLabelValues("ok").Inc()
	s.metrics.SkippedTotal.Add(float64(len(res.Skipped)))
	s.metrics.PoolSize.Observe(float64(len(res.Ranked)))
	w.Header().Set("X-Run-ID", res.RunID)
	w.Header().Set("X-Skipped-Documents", strconv.Itoa(len(res.Skipped)))
	s.respondJSON(w, http.StatusOK, res.Report)
}

// statusFor maps run errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEmptyPool):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrProviderError):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func outcomeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "malformed_request"
	case http.StatusUnprocessableEntity:
		return "empty_pool"
	case http.StatusGatewayTimeout:
		return "provider_timeout"
	case http.StatusBadGateway:
		return "provider_error"
	}
	return "error"
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.respondError(w, http.StatusNotImplemented, "run archive not enabled")
		return
	}
	limit, err := queryInt(r, "limit", defaultRunsLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	ctx := r.Context()
	runs, err := s.archive.ListRuns(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.archive.CountRuns(ctx)
	if err != nil {
		s.logger.Error("count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.respondError(w, http.StatusNotImplemented, "run archive not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.archive.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"archive": s.archive != nil,
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
