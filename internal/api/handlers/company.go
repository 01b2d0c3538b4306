package handlers

import (
	"context"
	"net/http"
	"strings"

	"qualsight/internal/model"
	"qualsight/internal/validate"
	"qualsight/pkg/logger"
)

// CompanySearcher finds company matches across all data sources
type CompanySearcher interface {
	SearchCompany(ctx context.Context, query string) []model.CompanyMatch
}

// CompanyValidator checks whether a user-entered identifier resolves to a
// real company
type CompanyValidator interface {
	Validate(ctx context.Context, input string) validate.Result
}

// CompanyHandler serves company search and validation endpoints
type CompanyHandler struct {
	searcher  CompanySearcher
	validator CompanyValidator
	log       *logger.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(searcher CompanySearcher, validator CompanyValidator, log *logger.Logger) *CompanyHandler {
	return &CompanyHandler{searcher: searcher, validator: validator, log: log}
}

// SearchResponse is the company search payload
type SearchResponse struct {
	Query   string               `json:"query"`
	Matches []model.CompanyMatch `json:"matches"`
	Count   int                  `json:"count"`
}

// Search returns de-duplicated matches from every source
// GET /api/company/search?q=<query>
func (h *CompanyHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	matches := h.searcher.SearchCompany(r.Context(), query)
	if matches == nil {
		matches = []model.CompanyMatch{}
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Matches: matches,
		Count:   len(matches),
	})
}

// Validate checks an identifier before analysis is attempted
// GET /api/company/validate?q=<query>
func (h *CompanyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	result := h.validator.Validate(r.Context(), query)
	respondJSON(w, http.StatusOK, result)
}
