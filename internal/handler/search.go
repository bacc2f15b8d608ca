package handler

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/model"
	"github.com/inmobica/assistant-server/internal/property"
)

// SearchHandler exposes the property-search endpoint.
type SearchHandler struct {
	searcher property.Searcher
}

func NewSearchHandler(searcher property.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperrors.InvalidInput("request body", err.Error()))
		return
	}

	filters := model.DefaultSearchFilters()
	if len(raw) > 0 {
		filters, err = model.ParseSearchFilters(raw)
		if err != nil {
			writeError(w, apperrors.ValidationError(err.Error()))
			return
		}
	}

	listings, err := h.searcher.Search(r.Context(), filters)
	if err != nil {
		log.Error().Err(err).Msg("property search failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(listings),
		"properties": listings,
	})
}
