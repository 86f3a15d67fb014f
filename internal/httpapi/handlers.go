package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itzcole03/atlas/pkg/models"
)

// HealthCheck reports process liveness and basic runtime counters.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":    "healthy",
		"service":   "atlas",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.started).String(),
	}
	if s.hub != nil {
		payload["ws_clients"] = s.hub.ClientCount()
	}
	s.respondJSON(w, http.StatusOK, payload)
}

// GetOpportunities returns unified betting opportunities.
// Query params: sport, min_confidence, sort, max_results
func (s *Server) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	resp := s.service.GetBettingOpportunities(r.Context(), parseFilters(r))
	s.respondJSON(w, http.StatusOK, resp)
}

// GetProps returns unified player props.
// Query params: sport, min_confidence, sort, max_results
func (s *Server) GetProps(w http.ResponseWriter, r *http.Request) {
	resp := s.service.GetPlayerProps(r.Context(), parseFilters(r))
	s.respondJSON(w, http.StatusOK, resp)
}

// GetEvents returns today's scheduled events.
// Query params: sport, max_results
func (s *Server) GetEvents(w http.ResponseWriter, r *http.Request) {
	resp := s.service.GetUpcomingEvents(r.Context(), parseFilters(r))
	s.respondJSON(w, http.StatusOK, resp)
}

// GetSports returns the sports present in current data.
func (s *Server) GetSports(w http.ResponseWriter, r *http.Request) {
	resp := s.service.GetAvailableSports(r.Context())
	s.respondJSON(w, http.StatusOK, resp)
}

// GetInSeason reports whether one sport is currently in season, with its
// registry metadata.
func (s *Server) GetInSeason(w http.ResponseWriter, r *http.Request) {
	sportID := chi.URLParam(r, "sportID")

	desc, ok := s.registry.Get(sportID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown sport", nil)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":        desc.ID,
		"display_name": desc.DisplayName,
		"emoji":        desc.Emoji,
		"category":     desc.Category,
		"in_season":    s.registry.InSeason(desc.ID, time.Now()),
	})
}

// invalidateRequest is the body of POST /api/v1/cache/invalidate. An empty
// or missing sport clears everything.
type invalidateRequest struct {
	Sport string `json:"sport"`
}

// InvalidateCache clears cached entries for one sport, or all of them.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if r.Body != nil {
		// An empty body means a full flush, so decode errors on EOF are fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var err error
	if req.Sport == "" {
		err = s.service.InvalidateAll(r.Context())
	} else {
		err = s.service.InvalidateSport(r.Context(), req.Sport)
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "cache invalidation failed", err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sport":     req.Sport,
		"timestamp": time.Now().UnixMilli(),
	})
}

// parseFilters reads the shared list-endpoint query parameters.
func parseFilters(r *http.Request) models.FetchFilters {
	q := r.URL.Query()
	return models.FetchFilters{
		Sport:         q.Get("sport"),
		MinConfidence: parseFloatParam(r, "min_confidence", 0),
		SortBy:        q.Get("sort"),
		MaxResults:    parseIntParam(r, "max_results", 0),
	}
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseFloatParam(r *http.Request, param string, defaultValue float64) float64 {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.logger.Error(message, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    status,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode error response failed", "error", err)
	}
}
