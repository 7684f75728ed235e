package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ponto-be/internal/api/handlers"
	"github.com/isdelr/ponto-be/internal/auth"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/isdelr/ponto-be/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PontoDeps are the collaborators of the attendance API.
type PontoDeps struct {
	Employees    services.EmployeeServiceProvider
	Attendance   services.AttendanceServiceProvider
	Issuer       *auth.TokenIssuer
	DB           handlers.Pinger
	CORSOrigins  []string
	SecureCookie bool
}

// MonitorDeps are the collaborators of the monitoring API.
type MonitorDeps struct {
	Ingestor    handlers.SampleIngestor
	Hub         *websocket.Hub
	Issuer      *auth.TokenIssuer
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

func baseRouter(origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	return r
}

// NewPontoRouter creates the router of the attendance API.
func NewPontoRouter(d PontoDeps) *chi.Mux {
	r := baseRouter(d.CORSOrigins)

	authHandler := handlers.NewAuthHandler(d.Employees, d.Issuer, d.Issuer.TTL(), d.SecureCookie)
	attendanceHandler := handlers.NewAttendanceHandler(d.Attendance, d.Employees)
	employeeHandler := handlers.NewEmployeeHandler(d.Employees)
	recordHandler := handlers.NewRecordHandler(d.Attendance)
	healthHandler := handlers.NewHealthHandler("ponto", d.DB)

	r.Get("/healthcheck", healthHandler.Check)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	// Authenticated routes. Each handler checks the caller's role itself.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Issuer))

		r.Post("/punch", attendanceHandler.Punch)
		r.Get("/me/today", attendanceHandler.Today)
		r.Get("/me/records", attendanceHandler.MyRecords)

		r.Route("/admin", func(r chi.Router) {
			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeHandler.GetAll)
				r.Post("/", employeeHandler.Create)
				r.Put("/{id}", employeeHandler.Update)
				r.Delete("/{id}", employeeHandler.Delete)
			})
			r.Route("/records", func(r chi.Router) {
				r.Get("/", recordHandler.GetAll)
				r.Get("/export", recordHandler.Export)
				r.Post("/manual", recordHandler.Manual)
				r.Put("/{id}", recordHandler.Update)
				r.Delete("/{id}", recordHandler.Delete)
			})
		})
	})

	return r
}

// NewMonitorRouter creates the router of the monitoring ingestion API.
func NewMonitorRouter(d MonitorDeps) *chi.Mux {
	r := baseRouter(d.CORSOrigins)

	ingestHandler := handlers.NewIngestHandler(d.Ingestor)
	healthHandler := handlers.NewHealthHandler("monitor", nil)

	r.Get("/healthcheck", healthHandler.Check)
	r.Post("/data", ingestHandler.Data)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// The live feed exposes per-employee network data, so it needs a token.
	if d.Hub != nil && d.Issuer != nil {
		wsHandler := handlers.NewWebSocketHandler(d.Hub, d.Issuer, d.CORSOrigins)
		r.Get("/ws/alerts", wsHandler.Serve)
	}

	return r
}
