package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/harborfin/taxlot/internal/models"
	"github.com/harborfin/taxlot/internal/services"
)

type TransactionHandler struct {
	service services.TransactionService
}

func NewTransactionHandler(service services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// userID resolves the requesting user from the X-User-ID header, falling
// back to the user_id query parameter.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("user_id")
}

// HandleCreate handles POST /api/transactions
// @Summary Create transaction
// @Description Create a single ledger transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Success 201 {object} models.Transaction
// @Failure 400 {string} string "Invalid transaction"
// @Router /transactions [post]
func (h *TransactionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if tx.UserID == "" {
		tx.UserID = userID(r)
	}

	if err := h.service.CreateTransaction(r.Context(), &tx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// HandleList handles GET /api/transactions
// @Summary List transactions
// @Description List transactions with optional filters
// @Tags transactions
// @Produce json
// @Param asset query string false "Comma-separated asset filter"
// @Param type query string false "Comma-separated type filter"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Transaction
// @Failure 500 {string} string "Internal server error"
// @Router /transactions [get]
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := &models.TransactionFilter{UserID: userID(r)}
	q := r.URL.Query()

	if assets := q.Get("asset"); assets != "" {
		filter.Assets = strings.Split(strings.ToUpper(assets), ",")
	}
	if types := q.Get("type"); types != "" {
		filter.Types = strings.Split(types, ",")
	}
	if start := q.Get("start_date"); start != "" {
		if parsed, err := time.Parse("2006-01-02", start); err == nil {
			filter.StartDate = &parsed
		}
	}
	if end := q.Get("end_date"); end != "" {
		if parsed, err := time.Parse("2006-01-02", end); err == nil {
			filter.EndDate = &parsed
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	txs, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}

	json.NewEncoder(w).Encode(txs)
}

// HandleGet handles GET /api/transactions/{id}
// @Summary Get transaction
// @Description Get one transaction by ID
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {string} string "Not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tx, err := h.service.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(tx)
}

// HandleUpdate handles PUT /api/transactions/{id}
// @Summary Update transaction
// @Description Replace a transaction's fields
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 400 {string} string "Invalid transaction"
// @Router /transactions/{id} [put]
func (h *TransactionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tx.ID = mux.Vars(r)["id"]

	if err := h.service.UpdateTransaction(r.Context(), &tx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(tx)
}

// HandleDelete handles DELETE /api/transactions/{id}
// @Summary Delete transaction
// @Description Delete one transaction by ID
// @Tags transactions
// @Param id path string true "Transaction ID"
// @Success 204 "No content"
// @Failure 404 {string} string "Not found"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTransaction(r.Context(), mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCategorize handles PUT /api/transactions/{id}/category
// @Summary Categorize transaction
// @Description Assign a category to a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 400 {string} string "Invalid category"
// @Router /transactions/{id}/category [put]
func (h *TransactionHandler) HandleCategorize(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.service.CategorizeTransaction(r.Context(), mux.Vars(r)["id"], body.Category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(tx)
}

// HandleSetLotSelections handles PUT /api/transactions/{id}/lots
// @Summary Pin disposal lots
// @Description Set the SpecificID lot selections for a disposal
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Disposal transaction ID"
// @Success 200 {array} models.LotSelection
// @Failure 400 {string} string "Invalid selections"
// @Router /transactions/{id}/lots [put]
func (h *TransactionHandler) HandleSetLotSelections(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var selections []models.LotSelection
	if err := json.NewDecoder(r.Body).Decode(&selections); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetLotSelections(r.Context(), userID(r), mux.Vars(r)["id"], selections); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(selections)
}

// HandleImport handles POST /api/transactions/import
// @Summary Import transactions
// @Description Import a batch of normalized transactions
// @Tags transactions
// @Accept json
// @Produce json
// @Success 201 {array} models.Transaction
// @Failure 400 {string} string "Invalid batch"
// @Router /transactions/import [post]
func (h *TransactionHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var txs []*models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txs); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	uid := userID(r)
	for _, tx := range txs {
		if tx.UserID == "" {
			tx.UserID = uid
		}
	}

	stored, err := h.service.ImportTransactions(r.Context(), txs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(stored)
}
