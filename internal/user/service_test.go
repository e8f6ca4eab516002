package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/testutil"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-staff-records/internal/user/repo"
)

type revocation struct {
	userID int64
	except string
}

type recordingRevoker struct{ calls []revocation }

func (r *recordingRevoker) RevokeUser(_ context.Context, userID int64, except string) error {
	r.calls = append(r.calls, revocation{userID, except})
	return nil
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc     *UserService
	repo    *userrepo.UserRepo
	revoker *recordingRevoker
	admin   *entity.User
	alice   *entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	r := userrepo.NewUserRepo(testutil.SQLite(t), 5*time.Second)
	require.NoError(t, r.EnsureTable(ctx))
	rv := &recordingRevoker{}
	svc := NewUserService(r, BcryptHasher{Cost: bcrypt.MinCost}, nil).WithSessions(rv)

	created, err := svc.EnsureAdmin(ctx, "admin", "admin-pw")
	require.NoError(t, err)
	require.True(t, created)
	admin, err := r.GetByUsername(ctx, "admin")
	require.NoError(t, err)

	alice, err := svc.Create(ctx, admin, entity.CreateInput{
		Firstname: "Alice", Lastname: "Auma", Username: "alice", Password: "secret",
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: r, revoker: rv, admin: admin, alice: alice}
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, algo, err := h.Hash("pw")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt:4", algo)
	assert.NotEqual(t, "pw", hash)
	assert.True(t, h.Verify(hash, "pw"))
	assert.False(t, h.Verify(hash, "PW"))
	assert.False(t, h.NeedsRehash(hash))
	assert.True(t, BcryptHasher{Cost: bcrypt.MinCost + 1}.NeedsRehash(hash))
	assert.True(t, h.NeedsRehash("not-a-hash"))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, u.ID)

	_, err = f.svc.Authenticate(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))
	assert.Equal(t, MsgPasswordMismatch, apperror.PublicMessage(err, ""))

	_, err = f.svc.Authenticate(ctx, "ghost", "x")
	assert.Equal(t, MsgUnknownUsername, apperror.PublicMessage(err, ""))
}

func TestCreateRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.Equal(t, entity.RoleUser, f.alice.Role, "role defaults to user")

	_, err := f.svc.Create(ctx, f.alice, entity.CreateInput{Username: "x", Password: "y"})
	assert.Equal(t, apperror.CodeForbidden, apperror.GetCode(err))

	_, err = f.svc.Create(ctx, f.admin, entity.CreateInput{Username: "alice", Password: "y"})
	assert.Equal(t, apperror.CodeConflict, apperror.GetCode(err))

	_, err = f.svc.Create(ctx, f.admin, entity.CreateInput{Username: "z", Password: "y", Role: "root"})
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))

	_, err = f.svc.Create(ctx, f.admin, entity.CreateInput{Username: "z"})
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))

	created, err := f.svc.EnsureAdmin(ctx, "admin2", "pw")
	require.NoError(t, err)
	assert.False(t, created, "seed only runs on an empty table")
}

func TestUpdateSelfProfileKeepsPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before, err := f.repo.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)

	u, err := f.svc.Update(ctx, f.alice, f.alice.ID, entity.UpdateInput{Firstname: ptr("Ally")}, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ally", u.Firstname)
	assert.Equal(t, "Auma", u.Lastname)

	after, err := f.repo.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Empty(t, f.revoker.calls)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Update(ctx, f.alice, f.alice.ID, entity.UpdateInput{NewPassword: ptr("next")}, "s1")
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))

	_, err = f.svc.Update(ctx, f.alice, f.alice.ID, entity.UpdateInput{
		CurrentPassword: ptr("wrong"), NewPassword: ptr("next"),
	}, "s1")
	assert.Equal(t, MsgCurrentPasswordBad, apperror.PublicMessage(err, ""))

	_, err = f.svc.Update(ctx, f.alice, f.alice.ID, entity.UpdateInput{
		CurrentPassword: ptr("secret"), NewPassword: ptr("next"),
	}, "s1")
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "alice", "next")
	assert.NoError(t, err)
	assert.Equal(t, []revocation{{f.alice.ID, "s1"}}, f.revoker.calls)

	// administrators reset other users without the current password
	_, err = f.svc.Update(ctx, f.admin, f.alice.ID, entity.UpdateInput{Password: ptr("reset")}, "admin-session")
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "alice", "reset")
	assert.NoError(t, err)
	assert.Equal(t, revocation{f.alice.ID, ""}, f.revoker.calls[1])
}

func TestPasswordLengthLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	long := strings.Repeat("x", entity.MaxPasswordBytes+1)

	_, err := f.svc.Create(ctx, f.admin, entity.CreateInput{Username: "longpw", Password: long})
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))
	assert.Equal(t, http.StatusBadRequest, apperror.HTTPStatus(err))

	_, err = f.svc.Create(ctx, f.admin, entity.CreateInput{Username: "maxpw", Password: long[:entity.MaxPasswordBytes]})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.alice, f.alice.ID, entity.UpdateInput{
		CurrentPassword: ptr("secret"), NewPassword: ptr(long),
	}, "s1")
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))
	_, err = f.svc.Update(ctx, f.admin, f.alice.ID, entity.UpdateInput{Password: ptr(long)}, "")
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))
	_, err = f.svc.Authenticate(ctx, "alice", "secret")
	assert.NoError(t, err, "rejected change leaves the password intact")
	assert.Empty(t, f.revoker.calls)

	err = hashError(bcrypt.ErrPasswordTooLong)
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))
	assert.Equal(t, apperror.CodeInternal, apperror.GetCode(hashError(errors.New("rand failure"))))
}

func TestUpdateAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Update(ctx, f.alice, f.admin.ID, entity.UpdateInput{Firstname: ptr("x")}, "")
	assert.Equal(t, apperror.CodeForbidden, apperror.GetCode(err))

	_, err = f.svc.Update(ctx, f.alice, f.alice.ID, entity.UpdateInput{Role: ptr(entity.RoleAdministrator)}, "")
	assert.Equal(t, apperror.CodeForbidden, apperror.GetCode(err))

	u, err := f.svc.Update(ctx, f.admin, f.alice.ID, entity.UpdateInput{Role: ptr(entity.RoleAdministrator)}, "")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdministrator, u.Role)

	_, err = f.svc.Update(ctx, f.admin, 999, entity.UpdateInput{Firstname: ptr("x")}, "")
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(err))

	_, err = f.svc.Update(ctx, nil, f.alice.ID, entity.UpdateInput{}, "")
	assert.Equal(t, apperror.CodeUnauthorized, apperror.GetCode(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.Equal(t, apperror.CodeUnauthorized, apperror.GetCode(f.svc.Delete(ctx, nil, f.alice.ID)))
	assert.Equal(t, apperror.CodeForbidden, apperror.GetCode(f.svc.Delete(ctx, f.alice, f.alice.ID)))
	require.NoError(t, f.svc.Delete(ctx, f.admin, f.alice.ID))
	assert.Equal(t, []revocation{{f.alice.ID, ""}}, f.revoker.calls)
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(f.svc.Delete(ctx, f.admin, f.alice.ID)))
}

func TestListSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	all, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := f.svc.List(ctx, "AUMA")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].Username)
}
