package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harborfin/taxlot/internal/db"
	"github.com/harborfin/taxlot/internal/exchanges"
	"github.com/harborfin/taxlot/internal/handlers"
	"github.com/harborfin/taxlot/internal/logger"
	"github.com/harborfin/taxlot/internal/repositories"
	"github.com/harborfin/taxlot/internal/services"
	"github.com/harborfin/taxlot/internal/tax"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Database connection
	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatal("Database health check failed", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database connection established")

	// Tax bracket tables: compiled-in defaults, overridable from a JSON file
	schedule := tax.DefaultSchedule()
	if path := os.Getenv("TAX_TABLES_FILE"); path != "" {
		schedule, err = tax.LoadSchedule(path)
		if err != nil {
			log.Fatal("Failed to load tax tables", zap.String("path", path), zap.Error(err))
		}
		log.Info("Loaded tax tables", zap.String("path", path))
	}

	// Repositories and services
	txRepo := repositories.NewTransactionRepository(database)
	selectionRepo := repositories.NewLotSelectionRepository(database)
	cache := services.NewSummaryCache()
	transactionService := services.NewTransactionService(txRepo, selectionRepo, cache)
	summaryService := services.NewSummaryService(txRepo, selectionRepo, schedule, cache)

	registry := exchanges.NewRegistry(
		exchanges.NewBinanceAdapter(os.Getenv("BINANCE_BASE_URL")),
		exchanges.NewKrakenAdapter(os.Getenv("KRAKEN_BASE_URL")),
	)
	syncService := services.NewSyncService(registry, txRepo, transactionService)

	// Handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	syncHandler := handlers.NewSyncHandler(syncService)

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "taxlot-backend",
		})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Summary endpoints before the {id} routes so mux matches them first
	api.HandleFunc("/transactions/summary", summaryHandler.HandleSummary).Methods(http.MethodGet)
	api.HandleFunc("/transactions/pnl-history", summaryHandler.HandlePnLHistory).Methods(http.MethodGet)
	api.HandleFunc("/transactions/import", transactionHandler.HandleImport).Methods(http.MethodPost)

	api.HandleFunc("/transactions", transactionHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/transactions", transactionHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/transactions/{id}/category", transactionHandler.HandleCategorize).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}/lots", transactionHandler.HandleSetLotSelections).Methods(http.MethodPut)

	api.HandleFunc("/sources/{exchange}/test", syncHandler.HandleTestConnection).Methods(http.MethodPost)
	api.HandleFunc("/sources/{exchange}/sync", syncHandler.HandleSync).Methods(http.MethodPost)

	// CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("Server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, corsHandler(router)); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
