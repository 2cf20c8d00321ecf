package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mosgim/platform/pkg/db"
	"github.com/mosgim/platform/services/user/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := New(gdb)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func seedUser(t *testing.T, r *GormRepo, username, roleName string) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := r.EnsureRole(ctx, roleName)
	require.NoError(t, err)
	role, err := r.FindRoleByName(ctx, roleName)
	require.NoError(t, err)

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		RoleID:       role.ID,
	}
	require.NoError(t, r.CreateUser(ctx, u))
	return u
}

func TestClaimFlag_OnlyFirstCallWins(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	ok, err := r.ClaimFlag(ctx, models.FlagBootstrapAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ClaimFlag(ctx, models.FlagBootstrapAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := r.FlagExists(ctx, models.FlagBootstrapAdmin)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEnsureRole_Idempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.EnsureRole(ctx, models.RoleUser)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.EnsureRole(ctx, models.RoleUser)
	require.NoError(t, err)
	assert.False(t, created)

	roles, err := r.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestCreateRole_Duplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.CreateRole(ctx, "editor")
	require.NoError(t, err)
	_, err = r.CreateRole(ctx, "editor")
	assert.ErrorIs(t, err, ErrRoleAlreadyExist)
}

func TestUserExists_MatchesUsernameOrEmail(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice", models.RoleUser)

	tests := []struct {
		name     string
		username string
		email    string
		want     bool
	}{
		{name: "same username", username: "alice", email: "other@example.com", want: true},
		{name: "same email", username: "bob", email: "alice@example.com", want: true},
		{name: "both new", username: "bob", email: "bob@example.com", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.UserExists(ctx, tt.username, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r, "alice", models.RoleUser)

	dup := &models.User{Username: "alice", Email: "x@example.com", PasswordHash: "x", RoleID: u.RoleID}
	err := r.CreateUser(context.Background(), dup)
	assert.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestAdminExists(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "alice", models.RoleUser)
	ok, err := r.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	seedUser(t, r, "root", models.RoleAdmin)
	ok, err = r.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetUserRole_UnknownUser(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	_, err := r.EnsureRole(ctx, models.RoleUser)
	require.NoError(t, err)
	role, err := r.FindRoleByName(ctx, models.RoleUser)
	require.NoError(t, err)

	ok, err := r.SetUserRole(ctx, 42, role.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokens_LookupAndDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "root", models.RoleAdmin)
	user := seedUser(t, r, "alice", models.RoleUser)

	_, err := r.CreateToken(ctx, admin.ID, "admin-token")
	require.NoError(t, err)
	_, err = r.CreateToken(ctx, user.ID, "user-token-1")
	require.NoError(t, err)
	_, err = r.CreateToken(ctx, user.ID, "user-token-2")
	require.NoError(t, err)

	owner, err := r.FindUserByToken(ctx, "user-token-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, owner.ID)

	latest, err := r.FindTokenByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-token-2", latest.Token)

	isAdmin, err := r.IsAdminToken(ctx, "admin-token")
	require.NoError(t, err)
	assert.True(t, isAdmin)
	isAdmin, err = r.IsAdminToken(ctx, "user-token-1")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	n, err := r.DeleteUserTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = r.FindToken(ctx, "user-token-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = r.FindToken(ctx, "admin-token")
	assert.NoError(t, err)
}

func TestGrantService_Idempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, r, "alice", models.RoleUser)
	svc, err := r.CreateService(ctx, "mosgim")
	require.NoError(t, err)

	granted, err := r.GrantService(ctx, user.ID, svc.ID)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = r.GrantService(ctx, user.ID, svc.ID)
	require.NoError(t, err)
	assert.False(t, granted)

	has, err := r.HasGrant(ctx, user.ID, svc.ID)
	require.NoError(t, err)
	assert.True(t, has)

	list, err := r.ListUserServices(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mosgim", list[0].Name)
}

func TestDeleteService_RemovesGrants(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, r, "alice", models.RoleUser)
	svc, err := r.CreateService(ctx, "mosgim")
	require.NoError(t, err)
	_, err = r.GrantService(ctx, user.ID, svc.ID)
	require.NoError(t, err)

	ok, err := r.DeleteService(ctx, svc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	has, err := r.HasGrant(ctx, user.ID, svc.ID)
	require.NoError(t, err)
	assert.False(t, has)

	ok, err = r.DeleteService(ctx, svc.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRole_InUseIsRejected(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, r, "alice", models.RoleUser)

	ok, err := r.DeleteRole(ctx, user.RoleID)
	require.Error(t, err)
	assert.False(t, ok)

	_, err = r.FindRoleByID(ctx, user.RoleID)
	assert.NoError(t, err)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.Transaction(ctx, func(tx *GormRepo) error {
		if _, err := tx.CreateRole(ctx, "temp"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = r.FindRoleByName(ctx, "temp")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
