package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router.
func SetupRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/api/health", h.HealthCheck).Methods("GET")

	// Capacity
	r.HandleFunc("/api/capacity", h.GetCapacity).Methods("GET")

	// Recomputation
	r.HandleFunc("/api/plans/{planId}/recompute", h.RecomputePlan).Methods("POST")
	r.HandleFunc("/api/recompute", h.RecomputeBatch).Methods("POST")
	r.HandleFunc("/api/recompute/{jobId}/status", h.GetRecomputeStatus).Methods("GET")

	// Reports
	reportRouter := r.PathPrefix("/api/reports").Subrouter()
	reportRouter.HandleFunc("/oee", h.GetOEEReport).Methods("GET")
	reportRouter.HandleFunc("/downtime/pareto", h.GetDowntimePareto).Methods("GET")
	reportRouter.HandleFunc("/rejections/pareto", h.GetRejectionPareto).Methods("GET")
	reportRouter.HandleFunc("/achievement", h.GetAchievementReport).Methods("GET")
	reportRouter.HandleFunc("/losstime", h.GetLossTimeReport).Methods("GET")

	// Chart images
	chartRouter := r.PathPrefix("/api/charts").Subrouter()
	chartRouter.HandleFunc("/achievement.png", h.GetAchievementChart).Methods("GET")
	chartRouter.HandleFunc("/oee.png", h.GetOEEChart).Methods("GET")
	chartRouter.HandleFunc("/rejections.png", h.GetRejectionChart).Methods("GET")
	chartRouter.HandleFunc("/losstime.png", h.GetLossTimeChart).Methods("GET")
	chartRouter.HandleFunc("/pareto/downtime.png", h.GetDowntimeParetoChart).Methods("GET")

	// Data management
	r.HandleFunc("/api/ingest", h.IngestData).Methods("POST")
	r.HandleFunc("/api/seed", h.SeedData).Methods("POST")
	r.HandleFunc("/api/mart/refresh", h.RefreshMart).Methods("POST")
	r.HandleFunc("/api/mart/stats", h.GetMartStats).Methods("GET")

	return r
}

// CORSMiddleware adds CORS headers.
func CORSMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(next)
	}
}

// LoggingMiddleware logs HTTP requests.
func LoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.Printf("%s %s %d %v", r.Method, r.RequestURI, wrapped.statusCode, time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
