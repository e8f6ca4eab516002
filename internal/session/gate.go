package session

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

type ctxKey struct{}

type identity struct {
	user      *entity.User
	sessionID string
}

// WithUser stores the acting user and its session id in ctx.
func WithUser(ctx context.Context, u *entity.User, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity{user: u, sessionID: sessionID})
}

// UserFrom returns the acting user stored by the gate, or nil.
func UserFrom(ctx context.Context) *entity.User {
	id, _ := ctx.Value(ctxKey{}).(identity)
	return id.user
}

// SessionIDFrom returns the id of the session the request was made with.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(identity)
	return id.sessionID
}

// AuthorizeSelfOrAdmin allows acting to touch targetID when it is that user
// or an administrator.
func AuthorizeSelfOrAdmin(acting *entity.User, targetID int64) error {
	if acting == nil {
		return apperror.Unauthorized(msgUnauthenticated)
	}
	if acting.ID == targetID || acting.IsAdmin() {
		return nil
	}
	return apperror.Forbidden("You can only access your own account")
}

func RequireAdmin(acting *entity.User) error {
	if acting == nil {
		return apperror.Unauthorized(msgUnauthenticated)
	}
	if !acting.IsAdmin() {
		return apperror.Forbidden("Administrator role required")
	}
	return nil
}

// CookieConfig controls the identity cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Gate reads the identity cookie and resolves the acting user.
type Gate struct {
	svc    *SessionService
	cookie CookieConfig
	logger *zap.SugaredLogger
}

func NewGate(svc *SessionService, cookie CookieConfig, logger *zap.SugaredLogger) *Gate {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &Gate{svc: svc, cookie: cookie, logger: logger}
}

func (g *Gate) token(r *http.Request) string {
	c, err := r.Cookie(g.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Require rejects requests without a valid session with 401 and otherwise
// stores the user in the request context.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, sess, err := g.svc.CurrentUser(r.Context(), g.token(r))
		if err != nil {
			utilities.WriteError(w, g.logger, err, "Error resolving session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u, sess.ID)))
	})
}

// RequireFunc is Require for a handler function.
func (g *Gate) RequireFunc(fn http.HandlerFunc) http.Handler {
	return g.Require(fn)
}

// SetCookie writes the identity cookie.
func (g *Gate) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(g.svc.TTL().Seconds()),
		HttpOnly: true,
		Secure:   g.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the identity cookie on the client.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
