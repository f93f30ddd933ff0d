package http

import (
	"net/http"

	"btwbuddy/internal/core"
)

func templateKind(s string) (core.TemplateKind, bool) {
	switch core.TemplateKind(s) {
	case core.AutofillTemplate:
		return core.AutofillTemplate, true
	case core.FixedTemplate:
		return core.FixedTemplate, true
	}
	return "", false
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	kind, ok := templateKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown template kind")
		return
	}

	templates, err := s.transactions.ListTemplates(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if templates == nil {
		templates = []core.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t core.Template
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, ok := templateKind(string(t.Kind)); !ok {
		writeError(w, http.StatusBadRequest, "unknown template kind")
		return
	}

	created, err := s.transactions.CreateTemplate(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var t core.Template
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.ID = r.PathValue("id")

	updated, err := s.transactions.UpdateTemplate(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
