package employee

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

// Handler exposes HTTP endpoints for employee records. Authentication is
// enforced by the router.
type Handler struct {
	svc    *EmployeeService
	logger *zap.SugaredLogger
}

func NewHandler(svc *EmployeeService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching employees")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utilities.PathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching employee")
		return
	}
	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching employee")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.EmployeeInput
	if err := utilities.DecodeJSON(w, r, &in); err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating employee")
		return
	}
	v, err := h.svc.Create(r.Context(), in)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating employee")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utilities.PathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating employee")
		return
	}
	var in entity.EmployeeInput
	if err := utilities.DecodeJSON(w, r, &in); err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating employee")
		return
	}
	v, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating employee")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utilities.PathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error deleting employee")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		utilities.WriteError(w, h.logger, err, "Error deleting employee")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]string{"message": "Employee deleted successfully"})
}
