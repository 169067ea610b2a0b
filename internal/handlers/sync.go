package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/harborfin/taxlot/internal/models"
	"github.com/harborfin/taxlot/internal/services"
)

type SyncHandler struct {
	service services.SyncService
}

func NewSyncHandler(service services.SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

type syncRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// HandleTestConnection handles POST /api/sources/{exchange}/test
// @Summary Test exchange connection
// @Description Verify exchange API credentials without importing anything
// @Tags sources
// @Accept json
// @Produce json
// @Param exchange path string true "Exchange name"
// @Success 200 {object} map[string]bool
// @Failure 400 {string} string "Connection failed"
// @Router /sources/{exchange}/test [post]
func (h *SyncHandler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body syncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	creds := models.Credentials{APIKey: body.APIKey, APISecret: body.APISecret}
	ok, err := h.service.TestConnection(r.Context(), mux.Vars(r)["exchange"], creds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"connected": ok})
}

// HandleSync handles POST /api/sources/{exchange}/sync
// @Summary Sync exchange ledger
// @Description Pull, normalize and import the exchange ledger for a window
// @Tags sources
// @Accept json
// @Produce json
// @Param exchange path string true "Exchange name"
// @Success 200 {object} services.SyncResult
// @Failure 400 {string} string "Sync failed"
// @Router /sources/{exchange}/sync [post]
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body syncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// default window: the last year up to now
	end := time.Now().UTC()
	start := end.AddDate(-1, 0, 0)
	if body.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			http.Error(w, "Invalid start_date", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	if body.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", body.EndDate)
		if err != nil {
			http.Error(w, "Invalid end_date", http.StatusBadRequest)
			return
		}
		end = parsed
	}

	creds := models.Credentials{APIKey: body.APIKey, APISecret: body.APISecret}
	result, err := h.service.Sync(r.Context(), userID(r), mux.Vars(r)["exchange"], creds, start, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(result)
}
