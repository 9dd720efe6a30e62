package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/terra-clan/wings-of-wisdom/internal/contact"
	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg, err := s.contact.Submit(r.Context(), req)
	if err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			respondAPIError(w, http.StatusBadRequest, &apiError{
				Code:    "validation_error",
				Message: verr.Fields[0].Message,
				Fields:  verr.Fields,
			})
			return
		}
		requestLogger(r.Context()).Error("failed to submit contact form", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to send message")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": contact.SuccessMessage,
		"id":      msg.ID,
	})
}

func (s *Server) handleListContact(w http.ResponseWriter, r *http.Request) {
	filters := models.ContactFilters{
		Subject: strings.TrimSpace(r.URL.Query().Get("subject")),
		Limit:   queryInt(r, "limit", 50, 1, 100),
		Offset:  queryInt(r, "offset", 0, 0, 1<<20),
	}

	msgs, err := s.contact.List(r.Context(), filters)
	if err != nil {
		requestLogger(r.Context()).Error("failed to list contact messages", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list messages")
		return
	}

	requestLogger(r.Context()).Info("contact inbox read", "messages", len(msgs))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"total":    len(msgs),
	})
}
