package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/storelens/croaudit/internal/audit"
)

type auditRequest struct {
	URL       string `json:"url"`
	AuditType string `json:"auditType"`
}

const unreachableMessage = "Could not load the site. It may block automated access (bot protection, VPN or IP reputation filtering). Try again or audit a different URL."

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.respondWithError(w, http.StatusBadRequest, "URL is required")
		return
	}

	auditType := audit.TypeSite
	if req.AuditType == string(audit.TypeProduct) {
		auditType = audit.TypeProduct
	}

	report, err := s.runner.Run(r.Context(), req.URL, auditType)
	if err != nil {
		if errors.Is(err, audit.ErrHomepageUnreachable) {
			s.respondWithError(w, http.StatusBadRequest, unreachableMessage)
			return
		}
		s.logger.Error().Err(err).Str("url", req.URL).Msg("audit failed")
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, report)
}

func (s *Server) handleAuditUsage(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Send a POST request with a JSON body: {\"url\": \"https://example.com\", \"auditType\": \"site\"}",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
