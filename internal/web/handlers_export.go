package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleExport streams the tenant's roster as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	format := r.URL.Query().Get("format")

	file, err := s.service.Export(r.Context(), tenantID, format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeAttachment(w, file.Name, file.ContentType, file.Data)
}

// handleTemplate serves the header-only import template.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	writeAttachment(w, "plantilla_pacientes.csv", "text/csv; charset=utf-8", s.service.Template())
}

func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}
