package handler

import (
	"net/http"

	"eicr-case-reader/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"eicr-case-reader"}`))
	}).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(LoggingMiddleware(container.GetLogger()))

	// Initialize handlers
	reportHandler := NewReportHandler(
		container.GetEngine(),
		container.GetExporter(),
		container.GetConfig(),
		container.GetLogger(),
	)
	rulesHandler := NewRulesHandler(container.GetEngine(), container.GetLogger())

	// Report routes
	api.HandleFunc("/reports/extract", reportHandler.ExtractReport).Methods("POST")
	api.HandleFunc("/reports/export", reportHandler.ExportReport).Methods("POST")

	// Rules routes
	api.HandleFunc("/rules", rulesHandler.GetRules).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		MaxAge: 300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
