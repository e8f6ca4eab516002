package user

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/session"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

// Handler exposes HTTP endpoints for user accounts. Every route is mounted
// behind the session gate, which puts the acting user in the context.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while fetching users")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utilities.PathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while fetching the user")
		return
	}
	u, err := h.svc.Get(r.Context(), session.UserFrom(r.Context()), id)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while fetching the user")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Safe())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.CreateInput
	if err := utilities.DecodeJSON(w, r, &in); err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while creating the user")
		return
	}
	u, err := h.svc.Create(r.Context(), session.UserFrom(r.Context()), in)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while creating the user")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, u.Safe())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utilities.PathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while updating the user")
		return
	}
	var in entity.UpdateInput
	if err := utilities.DecodeJSON(w, r, &in); err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while updating the user")
		return
	}
	ctx := r.Context()
	u, err := h.svc.Update(ctx, session.UserFrom(ctx), id, in, session.SessionIDFrom(ctx))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while updating the user")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Safe())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utilities.PathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while deleting the user")
		return
	}
	if err := h.svc.Delete(r.Context(), session.UserFrom(r.Context()), id); err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred while deleting the user")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
