package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/wings-of-wisdom/internal/contact"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []contact.FieldError `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondAPIError(w, status, &apiError{Code: code, Message: message})
}

func respondAPIError(w http.ResponseWriter, status int, apiErr *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error:   apiErr,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeJSON decodes an optional request body; an empty body leaves v untouched
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func queryInt(r *http.Request, key string, def, min, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < min {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results, err := s.registry.CheckAll(r.Context())

	checks := make(map[string]string, len(results))
	var failing []string
	for name, checkErr := range results {
		if checkErr != nil {
			requestLogger(r.Context()).Warn("readiness probe failed", "probe", name, "error", checkErr)
			checks[name] = "unavailable"
			failing = append(failing, name)
			continue
		}
		checks[name] = "ok"
	}

	if err != nil {
		sort.Strings(failing)
		respondError(w, http.StatusServiceUnavailable, "not_ready",
			"service not ready: "+strings.Join(failing, ", "))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Site handlers

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.Stats())
}

func (s *Server) handleRandomQuote(w http.ResponseWriter, r *http.Request) {
	quote, ok := s.content.RandomQuote()
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "no quotes available")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.event.Now())
}
