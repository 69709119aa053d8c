/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging through logrus (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/shifts/*         Compliance, pay and stored shifts
  /api/guards/*         Guard plan edits
  /api/contracts/*      Contracts and leave balances
  /api/absences/*       Absence requests and their workflow
  /api/employees/*      Per-employee listings
  /api/holidays         Holiday calendar
  /api/rules/{rule}     Rule help

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Post("/validate", h.ValidateShift)
			r.Post("/quick-validate", h.QuickValidateShift)
			r.Post("/pay", h.PriceShift)
			r.Post("/week-pay", h.PriceWeek)
		})

		r.Post("/guards/edit", h.EditGuard)

		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
			r.Get("/{id}/leave", h.GetLeave)
			r.Put("/{id}/leave/{year}", h.SeedLeave)
		})

		r.Route("/absences", func(r chi.Router) {
			r.Post("/", h.SubmitAbsence)
			r.Post("/validate", h.ValidateAbsence)
			r.Post("/{id}/approve", h.ApproveAbsence)
			r.Post("/{id}/reject", h.RejectAbsence)
			r.Post("/{id}/cancel", h.CancelAbsence)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/{id}/shifts", h.ListShifts)
			r.Get("/{id}/absences", h.ListAbsences)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})

		r.Get("/rules/{rule}", h.GetRuleHelp)
	})

	return r
}

// Health reports whether the database answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request once the response is written.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				entry := log.WithFields(logrus.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
					"request_id":  middleware.GetReqID(r.Context()),
				})
				switch {
				case ww.Status() >= http.StatusInternalServerError:
					entry.Error("request")
				case ww.Status() >= http.StatusBadRequest:
					entry.Warn("request")
				default:
					entry.Info("request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
