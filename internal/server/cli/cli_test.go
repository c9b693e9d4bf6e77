package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/auth"
	"github.com/dmitrijs2005/ordersync/internal/models"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/repomanager"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	err := run(context.Background(), root, args, &errOut)
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version:")
}

func TestToken_MintsVerifiableToken(t *testing.T) {
	fixed := time.Now()
	orig := now
	t.Cleanup(func() { now = orig })
	now = func() time.Time { return fixed }

	out, _, err := execute(t, "token", "--jwt-secret", "s3cret", "--email", " Boss@Shop.io ", "--name", "Boss", "--role", "admin", "--id", "u-1")
	require.NoError(t, err)

	claims, err := auth.ParseToken(strings.TrimSpace(out), []byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "boss@shop.io", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.WithinDuration(t, fixed.Add(24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestToken_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no secret", []string{"token", "--jwt-secret", "", "--email", "a@b.c"}, "no JWT secret"},
		{"bad role", []string{"token", "-s", "x", "--email", "a@b.c", "--role", "root"}, "unknown role"},
		{"no email", []string{"token", "-s", "x"}, "email is required"},
		{"bad storage", []string{"token", "-s", "x", "--email", "a@b.c", "--storage", "disk"}, "unknown storage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestMigrate_NeedsPostgres(t *testing.T) {
	_, _, err := execute(t, "migrate", "--storage", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate needs --storage=postgres")
}

func TestMigrate_ConnectError(t *testing.T) {
	orig := openPostgres
	t.Cleanup(func() { openPostgres = orig })
	openPostgres = func(context.Context, string) (*sql.DB, error) {
		return nil, errors.New("refused")
	}

	_, _, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database: refused")
}

type fakeManager struct {
	repomanager.RepositoryManager
	err   error
	calls int
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	f.calls++
	return f.err
}

func TestMigrateFunc(t *testing.T) {
	ok := &fakeManager{}
	require.NoError(t, migrate(context.Background(), nil, ok))
	assert.Equal(t, 1, ok.calls)

	failing := &fakeManager{err: errors.New("dirty")}
	err := migrate(context.Background(), nil, failing)
	require.EqualError(t, err, "migrations: dirty")
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, "frobnicate")
	require.Error(t, err)
}
