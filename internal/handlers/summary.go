package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/harborfin/taxlot/internal/models"
	"github.com/harborfin/taxlot/internal/services"
)

type SummaryHandler struct {
	service services.SummaryService
}

func NewSummaryHandler(service services.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// parseSummaryParams reads the common year/method query parameters. Year
// defaults to the current year, method to FIFO.
func parseSummaryParams(r *http.Request) (int, models.TaxMethod, error) {
	year := time.Now().UTC().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			return 0, "", err
		}
		year = parsed
	}
	method, err := models.ParseTaxMethod(r.URL.Query().Get("method"))
	if err != nil {
		return 0, "", err
	}
	return year, method, nil
}

// HandleSummary handles GET /api/transactions/summary
// @Summary Get realized gains summary
// @Description Get the short/long-term realized gains summary for a tax year
// @Tags summary
// @Produce json
// @Param year query int false "Tax year (defaults to current)"
// @Param method query string false "Matching method: fifo, lifo, hifo, specific_id"
// @Success 200 {object} models.Summary
// @Failure 400 {string} string "Invalid parameters"
// @Failure 500 {string} string "Internal server error"
// @Router /transactions/summary [get]
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	year, method, err := parseSummaryParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// summaries may be shared cache entries; never mutate them here
	summary, err := h.service.GetSummary(r.Context(), userID(r), year, method)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(summary)
}

// HandlePnLHistory handles GET /api/transactions/pnl-history
// @Summary Get P&L history
// @Description Get the cumulative realized P&L series for a tax year
// @Tags summary
// @Produce json
// @Param year query int false "Tax year (defaults to current)"
// @Param method query string false "Matching method: fifo, lifo, hifo, specific_id"
// @Success 200 {object} models.PnLHistory
// @Failure 400 {string} string "Invalid parameters"
// @Failure 500 {string} string "Internal server error"
// @Router /transactions/pnl-history [get]
func (h *SummaryHandler) HandlePnLHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	year, method, err := parseSummaryParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := h.service.GetPnLHistory(r.Context(), userID(r), year, method)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(history)
}
