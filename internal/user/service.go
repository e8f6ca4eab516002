package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/session"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-staff-records/internal/user/repo"
)

const (
	MsgUnknownUsername     = "Username does not exist"
	MsgPasswordMismatch    = "Password does not match the username"
	MsgCurrentPasswordBad  = "Current password is incorrect"
	MsgCurrentPasswordNone = "Current password is required to set a new password"
	msgNotFound            = "User not found"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", b.cost()), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was produced with a different cost.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return c != b.cost()
}

// hashError keeps over-long passwords a client error if they slip past
// input validation.
func hashError(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return apperror.Wrap(apperror.CodeValidation, fmt.Sprintf("password must be at most %d bytes", entity.MaxPasswordBytes), err)
	}
	return apperror.Wrap(apperror.CodeInternal, "hash password", err)
}

// SessionRevoker drops persisted sessions of a user, keeping except.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID int64, except string) error
}

// UserService orchestrates authentication and user lifecycle flows.
type UserService struct {
	repo     *userrepo.UserRepo
	hasher   PasswordHasher
	sessions SessionRevoker
	logger   *zap.SugaredLogger
}

func NewUserService(r *userrepo.UserRepo, hasher PasswordHasher, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, hasher: hasher, logger: logger}
}

// WithSessions wires session revocation on password change and delete.
func (s *UserService) WithSessions(rv SessionRevoker) *UserService {
	s.sessions = rv
	return s
}

// Authenticate checks a username/password pair. Both failure cases are
// validation errors with distinct messages.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.Validation(MsgUnknownUsername)
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, apperror.Validation(MsgUnknownUsername)
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, apperror.Validation(MsgPasswordMismatch)
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		_, err := s.repo.Update(ctx, u.ID, func(cur *entity.User) error {
			hash, algo, err := s.hasher.Hash(password)
			if err != nil {
				return err
			}
			cur.PasswordHash, cur.PasswordAlgo = hash, algo
			return nil
		})
		if err != nil {
			s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", err)
		}
	}
	return u, nil
}

// List returns safe users, narrowed to those whose username, first or last
// name contains search.
func (s *UserService) List(ctx context.Context, search string) ([]entity.SafeUser, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return rows, nil
	}
	out := make([]entity.SafeUser, 0, len(rows))
	for _, u := range rows {
		for _, f := range []string{u.Username, u.Firstname, u.Lastname} {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

// GetByID looks a user up by primary key.
func (s *UserService) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Get returns the target user when acting is that user or an administrator.
func (s *UserService) Get(ctx context.Context, acting *entity.User, id int64) (*entity.User, error) {
	if err := session.AuthorizeSelfOrAdmin(acting, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create registers a user. Only administrators may create accounts.
func (s *UserService) Create(ctx context.Context, acting *entity.User, in entity.CreateInput) (*entity.User, error) {
	if err := session.RequireAdmin(acting); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in entity.CreateInput) (*entity.User, error) {
	if err := in.Normalize(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	hash, algo, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, hashError(err)
	}
	u := &entity.User{
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Username:     in.Username,
		PasswordHash: hash,
		PasswordAlgo: algo,
		Role:         in.Role,
	}
	if _, err := s.repo.Create(ctx, u); err != nil {
		if apperror.Is(err, apperror.CodeConflict) {
			return nil, apperror.Wrap(apperror.CodeConflict, "Username already exists", err)
		}
		return nil, err
	}
	s.logger.Infow("user created", "id", u.ID, "role", u.Role)
	return u, nil
}

// Update merges the profile fields and, when asked, changes the password.
// The current password is checked and the new hash written in the same
// transaction. Administrators editing someone else skip that check.
// keepSession names the caller's session, which survives a password change.
func (s *UserService) Update(ctx context.Context, acting *entity.User, id int64, in entity.UpdateInput, keepSession string) (*entity.User, error) {
	if err := session.AuthorizeSelfOrAdmin(acting, id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	newPassword, changing := in.PasswordChange()
	needCurrent := changing && (acting.ID == id || !acting.IsAdmin())
	if needCurrent && (in.CurrentPassword == nil || *in.CurrentPassword == "") {
		return nil, apperror.Validation(MsgCurrentPasswordNone)
	}

	u, err := s.repo.Update(ctx, id, func(cur *entity.User) error {
		if in.Role != nil && *in.Role != cur.Role && !acting.IsAdmin() {
			return apperror.Forbidden("Only administrators can change roles")
		}
		in.Apply(cur)
		if !changing {
			return nil
		}
		if needCurrent && !s.hasher.Verify(cur.PasswordHash, *in.CurrentPassword) {
			return apperror.Validation(MsgCurrentPasswordBad)
		}
		hash, algo, err := s.hasher.Hash(newPassword)
		if err != nil {
			return hashError(err)
		}
		cur.PasswordHash, cur.PasswordAlgo = hash, algo
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.CodeConflict) {
			return nil, apperror.Wrap(apperror.CodeConflict, "Username already exists", err)
		}
		return nil, err
	}

	if changing && s.sessions != nil {
		except := ""
		if acting.ID == id {
			except = keepSession
		}
		if err := s.sessions.RevokeUser(ctx, id, except); err != nil {
			s.logger.Warnw("revoke sessions after password change failed", "user_id", id, "err", err)
		}
	}
	s.logger.Infow("user updated", "id", id, "password_changed", changing)
	return u, nil
}

// Delete removes a user. Administrator only.
func (s *UserService) Delete(ctx context.Context, acting *entity.User, id int64) error {
	if err := session.RequireAdmin(acting); err != nil {
		return err
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound(msgNotFound)
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, id, ""); err != nil {
			s.logger.Warnw("revoke sessions of deleted user failed", "user_id", id, "err", err)
		}
	}
	s.logger.Infow("user deleted", "id", id, "by", acting.ID)
	return nil
}

// EnsureAdmin creates the first administrator when the users table is
// empty and credentials are configured. It reports whether a user was
// created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.create(ctx, entity.CreateInput{
		Username: username,
		Password: password,
		Role:     entity.RoleAdministrator,
	}); err != nil {
		return false, err
	}
	return true, nil
}
