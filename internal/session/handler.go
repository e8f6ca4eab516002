package session

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

// Handler serves login, logout and the current-user lookup.
type Handler struct {
	svc    *SessionService
	auth   Authenticator
	gate   *Gate
	logger *zap.SugaredLogger
}

func NewHandler(svc *SessionService, auth Authenticator, gate *Gate, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, auth: auth, gate: gate, logger: logger}
}

// LoginRequest login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred during login")
		return
	}
	u, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred during login")
		return
	}
	token, sess, err := h.svc.Issue(r.Context(), u.ID)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "An error occurred during login")
		return
	}
	h.gate.SetCookie(w, token, sess.ExpiresAt)
	h.logger.Infow("login", "user_id", u.ID)
	utilities.WriteJSON(w, http.StatusOK, u.Safe())
}

// Logout revokes the presented session, if any, and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Revoke(r.Context(), h.gate.token(r)); err != nil {
		h.logger.Warnw("revoke session on logout failed", "err", err)
	}
	h.gate.ClearCookie(w)
	utilities.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Current returns the acting user. Mounted behind Gate.Require.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())
	if u == nil {
		utilities.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": msgUnauthenticated})
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Safe())
}
