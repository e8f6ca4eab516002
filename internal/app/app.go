// Package app assembles repositories, services and handlers into a running
// service.
package app

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/config"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee"
	employeerepo "github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/repo"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/report"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/router"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/session"
	sessionrepo "github.com/ovaphlow/pitchfork/service-staff-records/internal/session/repo"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-staff-records/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

type App struct {
	cfg    config.Config
	db     *sqlx.DB
	logger *zap.SugaredLogger

	employeeRepo *employeerepo.EmployeeRepo
	userRepo     *userrepo.UserRepo
	sessionRepo  *sessionrepo.SessionRepo

	Employees *employee.EmployeeService
	Users     *user.UserService
	Sessions  *session.SessionService
	Reports   *report.ReportService
}

func New(cfg config.Config, db *sqlx.DB, logger *zap.SugaredLogger) *App {
	timeout := cfg.Database.StatementTimeout
	a := &App{
		cfg:          cfg,
		db:           db,
		logger:       logger,
		employeeRepo: employeerepo.NewEmployeeRepo(db, timeout),
		userRepo:     userrepo.NewUserRepo(db, timeout),
		sessionRepo:  sessionrepo.NewSessionRepo(db, timeout),
	}
	a.Employees = employee.NewEmployeeService(a.employeeRepo, logger)
	a.Sessions = session.NewSessionService(a.sessionRepo, a.userRepo, cfg.Session.Secret, cfg.Session.TTL,
		utilities.NewIDGenerator(cfg.SnowflakeID), logger)
	a.Users = user.NewUserService(a.userRepo, user.BcryptHasher{Cost: cfg.BcryptCost}, logger).
		WithSessions(a.Sessions)
	a.Reports = report.NewReportService(a.Employees)
	return a
}

// EnsureSchema creates missing tables and seeds the first administrator.
func (a *App) EnsureSchema(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		a.employeeRepo.EnsureTable,
		a.userRepo.EnsureTable,
		a.sessionRepo.EnsureTable,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	created, err := a.Users.EnsureAdmin(ctx, a.cfg.Admin.Username, a.cfg.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		a.logger.Infow("initial administrator created", "username", a.cfg.Admin.Username)
	}
	return nil
}

// Handler builds the HTTP handler. reg receives the request metrics; a nil
// registry gets a private one with the Go and process collectors.
func (a *App) Handler(reg *prometheus.Registry) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	gate := session.NewGate(a.Sessions, session.CookieConfig{
		Name:   a.cfg.Session.CookieName,
		Secure: a.cfg.Session.Secure,
	}, a.logger)
	return router.RegisterRoutes(router.Deps{
		Logger:    a.logger,
		Gate:      gate,
		Sessions:  session.NewHandler(a.Sessions, a.Users, gate, a.logger),
		Users:     user.NewHandler(a.Users, a.logger),
		Employees: employee.NewHandler(a.Employees, a.logger),
		Reports:   report.NewHandler(a.Reports, a.logger),
		DB:        a.db,
		Registry:  reg,
	})
}
