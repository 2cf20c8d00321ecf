package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mosgim/platform/pkg/authclient"
	"github.com/mosgim/platform/pkg/db"
	"github.com/mosgim/platform/pkg/events"
	"github.com/mosgim/platform/pkg/tokens"
	"github.com/mosgim/platform/services/user/internal/httpserver"
	"github.com/mosgim/platform/services/user/internal/models"
	"github.com/mosgim/platform/services/user/internal/repo"
	"github.com/mosgim/platform/services/user/internal/service"
)

type integrationEnv struct {
	db  *gorm.DB
	svc *service.AuthService
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	dsn := os.Getenv("USER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("USER_TEST_DATABASE_URL is required for tests")
	}

	ctx := context.Background()
	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)

	r := repo.New(gdb)
	require.NoError(t, r.Migrate(ctx))
	truncateTables(t, gdb)

	svc := service.New(r, tokens.NewIssuer([]byte("test-jwt-secret")), events.Nop{})
	require.NoError(t, svc.EnsureDefaultRoles(ctx))

	t.Cleanup(func() {
		truncateTables(t, gdb)
		_ = db.Close(gdb)
	})
	return &integrationEnv{db: gdb, svc: svc}
}

func truncateTables(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	require.NoError(t, gdb.Exec(
		"TRUNCATE TABLE user_services, tokens, services, users, roles, system_flags RESTART IDENTITY CASCADE",
	).Error)
}

func TestIntegration_ConcurrentRegistrationsOneAdmin(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user%d", i)
			_, err := env.svc.Register(ctx, name, "pw", name+"@example.com")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var admins int64
	require.NoError(t, env.db.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", models.RoleAdmin).
		Count(&admins).Error)
	assert.EqualValues(t, 1, admins)
}

func TestIntegration_AuthClientAgainstUserService(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Users:    &httpserver.UserHTTP{Svc: env.svc},
		Roles:    &httpserver.RoleHTTP{Svc: env.svc},
		Services: &httpserver.ServiceHTTP{Svc: env.svc},
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	_, err := env.svc.Register(ctx, "alice", "pw", "alice@example.com")
	require.NoError(t, err)
	res, err := env.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	client := authclient.NewClient(srv.URL)
	ok, err := client.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, env.svc.Logout(ctx, res.Token))
	ok, err = client.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, ok, "revocation is visible immediately")
}
