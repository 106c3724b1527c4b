package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/factmesh/factmesh/internal/core"
)

const defaultListLimit = 50

// submitClaimRequest is the intake payload.
type submitClaimRequest struct {
	Text          string   `json:"text"`
	Platforms     []string `json:"platforms,omitempty"`
	Topic         string   `json:"topic,omitempty"`
	Severity      string   `json:"severity,omitempty"`
	TimeSensitive bool     `json:"time_sensitive,omitempty"`
	Breaking      bool     `json:"breaking,omitempty"`
	URLs          []string `json:"urls,omitempty"`
	MediaRefs     []string `json:"media_refs,omitempty"`
}

func (r submitClaimRequest) toClaim() *core.ClaimMetadata {
	claim := &core.ClaimMetadata{
		Text:          r.Text,
		Topic:         core.ParseTopic(r.Topic),
		Severity:      core.ParseSeverity(r.Severity),
		TimeSensitive: r.TimeSensitive,
		Breaking:      r.Breaking,
		URLs:          r.URLs,
		MediaRefs:     r.MediaRefs,
	}
	for _, p := range r.Platforms {
		claim.Platforms = append(claim.Platforms, core.ParsePlatform(p))
	}
	return claim
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req submitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	claim, err := s.pipeline.Submit(r.Context(), req.toClaim())
	if err != nil {
		s.respondDomainError(w, err, "submitting claim")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"claim":  claim,
		"status": core.ClaimStatusPendingAI,
	})
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.store.ListClaims(r.Context(), limit)
	if err != nil {
		s.respondDomainError(w, err, "listing claims")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"claims": records,
		"count":  len(records),
	})
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadClaim(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleEvaluateClaim(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")

	result, err := s.pipeline.EvaluateByID(r.Context(), claimID)
	if err != nil {
		s.respondDomainError(w, err, "evaluating claim")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetVerdict(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadClaim(w, r)
	if !ok {
		return
	}
	if record.Verdict == nil {
		respondError(w, http.StatusNotFound, "claim has not been evaluated yet")
		return
	}
	respondJSON(w, http.StatusOK, record.Verdict)
}

func (s *Server) handleGetRouting(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadClaim(w, r)
	if !ok {
		return
	}
	if record.Routing == nil {
		respondError(w, http.StatusNotFound, "claim has not been routed yet")
		return
	}
	respondJSON(w, http.StatusOK, record.Routing)
}

// loadClaim fetches the record for the claimID path parameter, writing
// the error response itself when the claim cannot be served.
func (s *Server) loadClaim(w http.ResponseWriter, r *http.Request) (*core.ClaimRecord, bool) {
	claimID := chi.URLParam(r, "claimID")

	record, err := s.store.GetClaim(r.Context(), claimID)
	if err != nil {
		s.respondDomainError(w, err, "loading claim")
		return nil, false
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "claim not found")
		return nil, false
	}
	return record, true
}

func (s *Server) respondDomainError(w http.ResponseWriter, err error, action string) {
	if status, ok := httpStatusForDomainError(err); ok {
		respondError(w, status, err.Error())
		return
	}
	s.logger.Error(action+" failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
