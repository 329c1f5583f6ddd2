package server

import (
	"net/http"

	"github.com/nexusfarm/nexus/internal/utils"
)

const version = "1.0.0"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":   "healthy",
		"version":  version,
		"service":  "nexus",
		"forecast": s.container.ForecastingService.Status().String(),
	}

	if err := s.container.DB.Conn().PingContext(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("Database ping failed")
		response["status"] = "unhealthy"
		utils.WriteJSON(w, s.log, http.StatusServiceUnavailable, response)
		return
	}

	utils.WriteJSON(w, s.log, http.StatusOK, response)
}
