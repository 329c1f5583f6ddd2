package users

import (
	"context"
	"testing"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/modules/activity"
	testingpkg "github.com/nexusfarm/nexus/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *activity.Repository) {
	t.Helper()
	db := testingpkg.NewTestDB(t)
	acts := activity.NewRepository(db.X(), zerolog.Nop())
	svc := NewService(NewRepository(db.X(), zerolog.Nop()), acts, nil, zerolog.Nop())
	svc.hashCost = bcrypt.MinCost
	return svc, acts
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, acts := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Username: "ravi", Phone: "9000000001", Password: "secret", Role: domain.RoleFarmer})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secret", u.PasswordHash)

	logged, err := svc.Login(ctx, "ravi", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.Equal(t, domain.RoleFarmer, logged.Role)

	logs, err := acts.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Logged in", logs[0].Action)
	assert.Equal(t, "Registered as farmer", logs[1].Action)
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Phone: "1", Password: "secret", Role: domain.RoleConsumer}},
		{"missing phone", RegisterRequest{Username: "a", Password: "secret", Role: domain.RoleConsumer}},
		{"short password", RegisterRequest{Username: "a", Phone: "1", Password: "abc", Role: domain.RoleConsumer}},
		{"unknown role", RegisterRequest{Username: "a", Phone: "1", Password: "secret", Role: "trader"}},
		{"admin self-registration", RegisterRequest{Username: "a", Phone: "1", Password: "secret", Role: domain.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestService_RegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "mira", Phone: "9000000002", Password: "secret", Role: domain.RoleConsumer})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "mira", Phone: "9000000003", Password: "secret", Role: domain.RoleConsumer})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.Register(ctx, RegisterRequest{Username: "other", Phone: "9000000002", Password: "secret", Role: domain.RoleConsumer})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestService_LoginFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "mira", Phone: "9000000002", Password: "secret", Role: domain.RoleConsumer})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "mira", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_EnsureAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "9999999999", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "admin", "9999999999", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestRepository_CountByRole(t *testing.T) {
	db := testingpkg.NewTestDB(t)
	testingpkg.InsertUser(t, db, "a", "1", "farmer")
	testingpkg.InsertUser(t, db, "b", "2", "farmer")
	testingpkg.InsertUser(t, db, "c", "3", "consumer")

	counts, err := NewRepository(db.X(), zerolog.Nop()).CountByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"farmer": 2, "consumer": 1}, counts)
}

func TestRepository_CreateDuplicateMapsError(t *testing.T) {
	db := testingpkg.NewTestDB(t)
	testingpkg.InsertUser(t, db, "a", "1", "farmer")

	err := NewRepository(db.X(), zerolog.Nop()).Create(context.Background(), &User{Username: "a", Phone: "2", PasswordHash: "x", Role: domain.RoleFarmer})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}
