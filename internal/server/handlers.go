package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/search"
	"github.com/hyperjump/jobrecall/internal/storage"
	"github.com/hyperjump/jobrecall/internal/vector"
)

// jobCounter is implemented by backends that can count their jobs.
type jobCounter interface {
	CountJobs(ctx context.Context) (int64, error)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("recommend request",
		zap.String("app_user_id", req.AppUserID),
		zap.Int("top_k", req.TopK))
	resp, err := s.engine.Recommend(r.Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("recommend failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	results := resp.Results
	if results == nil {
		results = []models.MatchResult{}
	}
	w.Header().Set(HeaderRequestID, resp.RequestID)
	w.Header().Set(HeaderElapsedMs, strconv.FormatInt(resp.TimeMs, 10))
	s.respondJSON(w, http.StatusOK, results)
}

type listJobsRequest struct {
	JobIDs []string `json:"job_ids"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var req listJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	jobs, err := s.engine.Jobs(r.Context(), req.JobIDs)
	if err != nil {
		s.logger.Error("list jobs failed", zap.Int("count", len(req.JobIDs)), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.engine.Job(r.Context(), id)
	if err != nil {
		s.logger.Error("get job failed", zap.String("job_id", id), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if job == nil {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleIndexJob(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondError(w, http.StatusNotImplemented, "indexing not enabled")
		return
	}
	var job models.JobRecord
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index job request", zap.String("job_id", job.ID), zap.String("title", job.Title))
	if err := s.indexer.IndexJob(r.Context(), &job); err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": job.ID, "status": "indexed"})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondError(w, http.StatusNotImplemented, "indexing not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete job request", zap.String("job_id", id))
	if err := s.indexer.DeleteJob(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			s.respondError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"backend": s.config.Storage.Backend,
		"vector":  s.config.Vector.IndexType,
	}
	if c, ok := s.backend.(jobCounter); ok {
		n, err := c.CountJobs(r.Context())
		if err != nil {
			s.logger.Error("health: count jobs failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		resp["jobs"] = n
	}
	sizes := make(map[string]int, len(vector.AllCollections))
	for _, c := range vector.AllCollections {
		n, err := s.vectors.Size(r.Context(), c)
		if err != nil {
			s.logger.Error("health: vector size failed", zap.String("collection", c), zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		sizes[c] = n
	}
	resp["vectors"] = sizes
	if bytes, err := storage.Footprint(s.config); err == nil {
		resp["disk_usage_bytes"] = bytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps engine errors to HTTP status codes. Store and graph failures are 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
