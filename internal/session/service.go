package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	sessionentity "github.com/ovaphlow/pitchfork/service-staff-records/internal/session/entity"
	sessionrepo "github.com/ovaphlow/pitchfork/service-staff-records/internal/session/repo"
	userentity "github.com/ovaphlow/pitchfork/service-staff-records/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

const msgUnauthenticated = "Not authenticated"

// UserLookup resolves a user id to the stored account.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*userentity.User, error)
}

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*userentity.User, error)
}

// SessionService issues and verifies session tokens. A token is an HS256
// JWT whose jti names a row in the sessions table; both must be valid.
type SessionService struct {
	repo   *sessionrepo.SessionRepo
	users  UserLookup
	secret []byte
	ttl    time.Duration
	ids    *utilities.IDGenerator
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewSessionService(r *sessionrepo.SessionRepo, users UserLookup, secret []byte, ttl time.Duration, ids *utilities.IDGenerator, logger *zap.SugaredLogger) *SessionService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SessionService{
		repo:   r,
		users:  users,
		secret: secret,
		ttl:    ttl,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

func (s *SessionService) TTL() time.Duration { return s.ttl }

func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Issue persists a new session for userID and returns its signed token.
func (s *SessionService) Issue(ctx context.Context, userID int64) (string, *sessionentity.Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	sess := &sessionentity.Session{
		ID:        s.ids.Generate(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return "", nil, err
	}

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, apperror.Wrap(apperror.CodeInternal, "sign session token", err)
	}
	return signed, sess, nil
}

// parse verifies signature and expiry and returns the claims.
func (s *SessionService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token has no session id")
	}
	return claims, nil
}

// CurrentUser resolves a token to its user. Every failure (bad signature,
// expiry, revoked or expired session, deleted user, subject mismatch) is
// reported as unauthorized. Store failures other than not-found propagate.
func (s *SessionService) CurrentUser(ctx context.Context, token string) (*userentity.User, *sessionentity.Session, error) {
	if token == "" {
		return nil, nil, apperror.Unauthorized(msgUnauthenticated)
	}
	claims, err := s.parse(token)
	if err != nil {
		s.logger.Debugw("session token rejected", "err", err)
		return nil, nil, apperror.Unauthorized(msgUnauthenticated)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil, apperror.Unauthorized(msgUnauthenticated)
	}

	sess, err := s.repo.Get(ctx, claims.ID)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, nil, apperror.Unauthorized(msgUnauthenticated)
		}
		return nil, nil, err
	}
	if sess.UserID != userID || sess.Expired(s.now()) {
		return nil, nil, apperror.Unauthorized(msgUnauthenticated)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, nil, apperror.Unauthorized(msgUnauthenticated)
		}
		return nil, nil, err
	}
	return u, sess, nil
}

// Revoke deletes the session a token names. Invalid tokens are ignored so
// logout is idempotent.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims := &jwt.RegisteredClaims{}
	// expired tokens may still be revoked, the signature must hold
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || claims.ID == "" {
		return nil
	}
	return s.repo.Delete(ctx, claims.ID)
}

// RevokeUser deletes every session of userID except the one named by except.
func (s *SessionService) RevokeUser(ctx context.Context, userID int64, except string) error {
	n, err := s.repo.DeleteByUser(ctx, userID, except)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Infow("sessions revoked", "user_id", userID, "count", n)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
