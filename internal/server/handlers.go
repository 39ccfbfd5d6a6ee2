package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vectorlab/embedserve/internal/modelcache"
	"github.com/vectorlab/embedserve/internal/models"
	"github.com/vectorlab/embedserve/internal/registry"
	"github.com/vectorlab/embedserve/internal/transform"
)

// statusClientClosedRequest is the nginx convention for a request abandoned
// by the client; net/http has no named constant for it.
const statusClientClosedRequest = 499

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req models.EmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modelID := req.Model
	if modelID == "" {
		modelID = s.pipeline.DefaultModel()
	}
	s.metrics.CountModelRequest(modelID)
	s.logger.Debug("embeddings request",
		zap.String("model", modelID),
		zap.Int("inputs", len(req.Input)),
	)

	resp, err := s.pipeline.Transform(r.Context(), &req)
	if err != nil {
		s.respondTransformError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("model_name")
	if id == "" {
		id = s.pipeline.DefaultModel()
	}
	desc, err := s.registry.Resolve(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.ModelInfo{
		Model:              desc.ID,
		MaxSeqLen:          desc.MaxInputLength,
		EmbeddingDimension: desc.Dimensions,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	descriptors := s.registry.List()
	out := models.ModelsResponse{Models: make([]models.ModelStatus, 0, len(descriptors))}
	for _, d := range descriptors {
		out.Models = append(out.Models, models.ModelStatus{
			Model:              d.ID,
			MaxSeqLen:          d.MaxInputLength,
			EmbeddingDimension: d.Dimensions,
			Loaded:             s.cache.Loaded(d.ID),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		s.respondJSON(w, http.StatusServiceUnavailable, models.ReadyResponse{Ready: false})
		return
	}
	s.respondJSON(w, http.StatusOK, models.ReadyResponse{Ready: true})
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.AliveResponse{Alive: true})
}

// respondTransformError translates each pipeline error kind into a distinct
// status. Loader and backend causes go to the log only, never to the client.
func (s *Server) respondTransformError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLong *transform.InputTooLongError
	var loadErr *modelcache.LoadError
	var contractErr *transform.ContractError

	switch {
	case errors.Is(err, transform.ErrEmptyInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrUnknownModel):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &tooLong):
		s.respondError(w, http.StatusRequestEntityTooLarge, tooLong.Error())
	case errors.As(err, &loadErr):
		s.logger.Error("model load failed", zap.String("model", loadErr.Model), zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "model is temporarily unavailable")
	case errors.As(err, &contractErr):
		s.logger.Error("model contract violation", zap.String("model", contractErr.Model), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal model error")
	case errors.Is(err, transform.ErrTimeout):
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; the response is never read, but an explicit
		// status keeps cancellations out of the success counts.
		w.WriteHeader(statusClientClosedRequest)
	default:
		s.logger.Error("transform failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}
