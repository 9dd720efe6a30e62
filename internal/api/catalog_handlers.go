package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Catalog handlers: laureate search and modal content

func (s *Server) handleSearchLaureates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results := s.catalog.Search(q.Get("q"), q.Get("category"), q.Get("year"))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"laureates": results,
		"total":     len(results),
	})
}

func (s *Server) handleLaureateFilters(w http.ResponseWriter, r *http.Request) {
	categories := s.catalog.Categories()
	options := make([]map[string]string, len(categories))
	for i, c := range categories {
		options[i] = map[string]string{"value": string(c), "label": c.Title()}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": options,
		"years":      s.catalog.Years(),
	})
}

func (s *Server) handleGetLaureate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// chi matches on RawPath when the request carries one, leaving params escaped
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	laureate, ok := s.catalog.Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "laureate not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"laureate": laureate,
		"content":  s.content.Get(models.KindLaureate, laureate.ContentID),
	})
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	kind := models.ContentKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respondError(w, http.StatusNotFound, "not_found", "unknown content kind")
		return
	}

	entries := s.content.List(kind)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	kind := models.ContentKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respondError(w, http.StatusNotFound, "not_found", "unknown content kind")
		return
	}

	entry := s.content.Get(kind, chi.URLParam(r, "id"))
	if entry == nil {
		respondError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}
