package report

import (
	"bytes"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

// Handler exposes the report views. Mounted behind the session gate.
type Handler struct {
	svc    *ReportService
	logger *zap.SugaredLogger
}

func NewHandler(svc *ReportService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type employeesResponse struct {
	Count     int             `json:"count"`
	Employees []employee.View `json:"employees"`
}

func (h *Handler) filtered(w http.ResponseWriter, r *http.Request) ([]entity.Employee, bool) {
	c, err := ParseCriteria(r.URL.Query(), "search")
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error generating report")
		return nil, false
	}
	rows, err := h.svc.Employees(r.Context(), c, r.URL.Query().Get("search"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error generating report")
		return nil, false
	}
	return rows, true
}

func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filtered(w, r)
	if !ok {
		return
	}
	views := employee.NewViews(rows, h.svc.now())
	utilities.WriteJSON(w, http.StatusOK, employeesResponse{Count: len(views), Employees: views})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filtered(w, r)
	if !ok {
		return
	}
	name := fmt.Sprintf("employee_report_%s.csv", h.svc.now().Format(entity.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := WriteCSV(w, headers(DefaultColumns), records(rows, DefaultColumns)); err != nil {
		h.logger.Warnw("write csv export", "err", err)
	}
}

func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filtered(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := RenderPrint(&buf, rows, DefaultColumns, h.svc.now()); err != nil {
		utilities.WriteError(w, h.logger, err, "Error rendering report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Options(r.Context())
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error loading report options")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, opts)
}

func (h *Handler) Stations(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Stations(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error loading station counts")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handler) Districts(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Districts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error loading district counts")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, groups)
}
