package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mizanhq/mizan/internal/models"
	"github.com/mizanhq/mizan/internal/session"
	"github.com/mizanhq/mizan/internal/storage"
	"github.com/mizanhq/mizan/internal/vector"
	"go.uber.org/zap"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ask request", zap.String("query", req.Query))

	start := time.Now()
	answer, err := s.pipeline.Ask(r.Context(), s.session, req.Query)
	if err != nil {
		if errors.Is(err, session.ErrNoDocuments) {
			s.respondError(w, http.StatusConflict, "no documents have been ingested; run ingestion first")
			return
		}
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.AskResponse{
		Answer:    answer,
		QueryTime: time.Since(start).Milliseconds(),
		Query:     req.Query,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("ingest request")
	stats, err := s.pipeline.Ingest(r.Context(), s.session)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.IngestResponse{
		Pages:     stats.Pages,
		Documents: stats.Documents,
		TimeMS:    stats.Elapsed.Milliseconds(),
	})
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages := s.session.Pages()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(pages),
		"pages": pages,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.storage != nil {
		exchanges, err := s.storage.ListExchanges(r.Context(), 0, 100)
		if err != nil {
			s.logger.Error("history: list exchanges failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"exchanges": exchanges})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"exchanges": s.session.History()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{
		"pages": s.session.PageCount(),
	}
	if s.storage != nil {
		exchangeCount, err := s.storage.CountExchanges(ctx)
		if err != nil {
			s.logger.Error("status: count exchanges failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["exchanges"] = exchangeCount
	} else {
		resp["exchanges"] = len(s.session.History())
	}

	configInfo := map[string]interface{}{
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"generation_model":     s.config.Generation.Model,
		"top_k":                s.config.Retrieval.TopK,
		"index_type":           s.config.Retrieval.IndexType,
		"faiss_available":      vector.IsFAISSAvailable(),
		"database_path":        s.config.Storage.DatabasePath,
	}
	if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
