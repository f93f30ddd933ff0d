package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"btwbuddy/internal/core"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	key := fmt.Sprintf("%d-%02d", year, month)
	if summary, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.transactions.MonthlySummary(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleQuarterSummaries(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}

	summaries, err := s.transactions.QuarterSummaries(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.transactions.Months(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if months == nil {
		months = []core.YearMonth{}
	}
	writeJSON(w, http.StatusOK, months)
}

type exportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type exportResponse struct {
	Files []string `json:"files"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	files, err := s.exports.ExportMonth(r.Context(), req.Year, req.Month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{Files: files})
}
