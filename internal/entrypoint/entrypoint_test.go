package entrypoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

func newDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSeed_GeneratedPasswordIsLoggedOnce(t *testing.T) {
	db := newDatabase(t)
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &config.Config{Auth: config.Auth{BcryptCost: 4}}

	require.NoError(t, Seed(db, cfg, zap.New(core)))
	require.Equal(t, 1, logs.Len())
	password, ok := logs.All()[0].ContextMap()["password"].(string)
	require.True(t, ok)
	assert.Len(t, password, auth.TemporaryPasswordLength)

	svc := auth.NewService(db.DB, cfg.Auth)
	user, err := svc.Authenticate("librarian@library.local", password)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleLibrarian, user.Role)

	require.NoError(t, Seed(db, cfg, zap.New(core)))
	assert.Equal(t, 1, logs.Len())
}

func TestSeed_ConfiguredPassword(t *testing.T) {
	db := newDatabase(t)
	cfg := &config.Config{
		Auth: config.Auth{BcryptCost: 4},
		Seed: config.Seed{Enabled: true, Password: "library-demo-password"},
	}

	require.NoError(t, Seed(db, cfg, zap.NewNop()))

	svc := auth.NewService(db.DB, cfg.Auth)
	_, err := svc.Authenticate("reader@library.local", "library-demo-password")
	assert.NoError(t, err)
}

func TestSeed_ShortPasswordRejected(t *testing.T) {
	db := newDatabase(t)
	cfg := &config.Config{Seed: config.Seed{Password: "short"}}

	err := Seed(db, cfg, zap.NewNop())
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestCSRFKey(t *testing.T) {
	key, err := csrfKey("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff", zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, key, 32)

	key, err = csrfKey("not-hex-but-still-a-secret", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []byte("not-hex-but-still-a-secret"), key)

	key, err = csrfKey("", zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
