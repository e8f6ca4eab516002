package router

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/report"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/session"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user"
)

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the handlers and collaborators the route table mounts.
type Deps struct {
	Logger    *zap.SugaredLogger
	Gate      *session.Gate
	Sessions  *session.Handler
	Users     *user.Handler
	Employees *employee.Handler
	Reports   *report.Handler
	DB        Pinger
	Registry  *prometheus.Registry
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(d Deps) (http.Handler, error) {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				d.Logger.Warnw("health check failed", "err", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// session
	auth := d.Gate.RequireFunc
	mux.HandleFunc("POST /login", d.Sessions.Login)
	mux.HandleFunc("POST /logout", d.Sessions.Logout)
	mux.Handle("GET /users/current", auth(d.Sessions.Current))

	// users
	mux.Handle("GET /users", auth(d.Users.List))
	mux.Handle("POST /users", auth(d.Users.Create))
	mux.Handle("GET /users/{id}", auth(d.Users.Get))
	mux.Handle("PUT /users/{id}", auth(d.Users.Update))
	mux.Handle("DELETE /users/{id}", auth(d.Users.Delete))

	// employees
	mux.Handle("GET /employees", auth(d.Employees.List))
	mux.Handle("POST /employees", auth(d.Employees.Create))
	mux.Handle("GET /employees/{id}", auth(d.Employees.Get))
	mux.Handle("PUT /employees/{id}", auth(d.Employees.Update))
	mux.Handle("DELETE /employees/{id}", auth(d.Employees.Delete))

	// reports
	mux.Handle("GET /reports/employees", auth(d.Reports.Employees))
	mux.Handle("GET /reports/employees/export", auth(d.Reports.Export))
	mux.Handle("GET /reports/employees/print", auth(d.Reports.Print))
	mux.Handle("GET /reports/options", auth(d.Reports.Options))
	mux.Handle("GET /reports/stations", auth(d.Reports.Stations))
	mux.Handle("GET /reports/districts", auth(d.Reports.Districts))

	handler := RequestIDMiddleware()(
		LoggingMiddleware(d.Logger)(
			metrics.Middleware(
				SecurityHeadersMiddleware()(mux))))
	return handler, nil
}
