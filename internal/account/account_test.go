package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chystahata/site/api/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const defaultPassword = "admin123"

func newTestService(t *testing.T, store kv.Store, resetKey string) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Store:           store,
		DefaultPassword: defaultPassword,
		ResetKey:        resetKey,
		SessionSecret:   []byte("test-secret"),
		SessionIssuer:   "test",
		SessionTTL:      time.Hour,
		BcryptCost:      bcrypt.MinCost,
	})
	require.NoError(t, err)
	return svc
}

func TestCheckDefaultPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), "")

	session, err := svc.Check(ctx, defaultPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, 0, claims.PasswordVersion)

	for _, wrong := range []string{"", "admin", "admin1234", "ADMIN123", " admin123"} {
		_, err := svc.Check(ctx, wrong)
		assert.ErrorIs(t, err, ErrInvalidPassword, wrong)
	}
}

func TestChangePasswordInvalidatesOldPasswordAndSessions(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := newTestService(t, store, "")

	oldSession, err := svc.Check(ctx, defaultPassword)
	require.NoError(t, err)

	newSession, err := svc.ChangePassword(ctx, defaultPassword, "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Check(ctx, defaultPassword)
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = svc.Check(ctx, "s3cret-pass")
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, oldSession.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.Authenticate(ctx, newSession.Token)
	assert.NoError(t, err)

	var credential Credential
	require.NoError(t, kv.GetJSON(ctx, store, kv.KeyAdminPassword, &credential))
	assert.Equal(t, 1, credential.Version)
	assert.NotContains(t, credential.Hash, "s3cret-pass")
}

func TestChangePasswordRules(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), "")

	_, err := svc.ChangePassword(ctx, defaultPassword, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = svc.ChangePassword(ctx, defaultPassword, defaultPassword)
	assert.ErrorIs(t, err, ErrSamePassword)
	_, err = svc.ChangePassword(ctx, "wrong-current", "another-pass")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.Check(ctx, defaultPassword)
	assert.NoError(t, err)
}

func TestChangePasswordChecksCurrentBeforePolicy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), "")

	for _, candidate := range []string{"short", "wrong-current", strings.Repeat("x", MaxPasswordBytes+1)} {
		_, err := svc.ChangePassword(ctx, "wrong-current", candidate)
		assert.ErrorIs(t, err, ErrInvalidPassword, candidate)
	}
}

func TestChangePasswordRejectsOverlongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), "")

	// 25 three-byte runes: long enough by count, too long for bcrypt
	overlong := strings.Repeat("€", 25)
	_, err := svc.ChangePassword(ctx, defaultPassword, overlong)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = svc.Check(ctx, defaultPassword)
	assert.NoError(t, err)

	limit := strings.Repeat("a", MaxPasswordBytes)
	_, err = svc.ChangePassword(ctx, defaultPassword, limit)
	require.NoError(t, err)
	_, err = svc.Check(ctx, limit)
	assert.NoError(t, err)
}

func TestResetPasswordRestoresDefault(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), "reset-key")

	session, err := svc.ChangePassword(ctx, defaultPassword, "changed-once")
	require.NoError(t, err)
	_, err = svc.ChangePassword(ctx, "changed-once", "changed-twice")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx))
	_, err = svc.Check(ctx, defaultPassword)
	assert.NoError(t, err)
	_, err = svc.Check(ctx, "changed-twice")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// reset from the pristine state also works
	fresh := newTestService(t, kv.NewMemoryStore(), "reset-key")
	require.NoError(t, fresh.ResetPassword(ctx))
	_, err = fresh.Check(ctx, defaultPassword)
	assert.NoError(t, err)
}

func TestAuthorizeReset(t *testing.T) {
	disabled := newTestService(t, kv.NewMemoryStore(), "")
	assert.ErrorIs(t, disabled.AuthorizeReset("anything"), ErrResetDisabled)

	enabled := newTestService(t, kv.NewMemoryStore(), "reset-key")
	assert.ErrorIs(t, enabled.AuthorizeReset("nope"), ErrInvalidResetKey)
	assert.NoError(t, enabled.AuthorizeReset("reset-key"))
}

func TestLegacyPlaintextIsUpgraded(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, kv.SetJSON(ctx, store, kv.KeyAdminPassword, "legacy-pass"))
	svc := newTestService(t, store, "")

	_, err := svc.Check(ctx, defaultPassword)
	assert.ErrorIs(t, err, ErrInvalidPassword)

	session, err := svc.Check(ctx, "legacy-pass")
	require.NoError(t, err)

	var credential Credential
	require.NoError(t, kv.GetJSON(ctx, store, kv.KeyAdminPassword, &credential))
	assert.NotEmpty(t, credential.Hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(credential.Hash), []byte("legacy-pass")))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.NoError(t, err)
	_, err = svc.Check(ctx, "legacy-pass")
	assert.NoError(t, err)
}

func TestSessionIssuer(t *testing.T) {
	issuer, err := NewSessionIssuer([]byte("secret"), "site", time.Minute)
	require.NoError(t, err)

	session, err := issuer.Issue(3)
	require.NoError(t, err)
	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.PasswordVersion)
	assert.Equal(t, "site", claims.Issuer)

	other, err := NewSessionIssuer([]byte("other-secret"), "site", time.Minute)
	require.NoError(t, err)
	_, err = other.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	wrongIssuer, err := NewSessionIssuer([]byte("secret"), "elsewhere", time.Minute)
	require.NoError(t, err)
	_, err = wrongIssuer.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = NewSessionIssuer(nil, "x", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSecretKey)
	_, err = NewSessionIssuer([]byte("x"), "x", 0)
	assert.Error(t, err)
}

func TestNewServiceRejectsWeakDefault(t *testing.T) {
	_, err := NewService(Config{
		Store:           kv.NewMemoryStore(),
		DefaultPassword: "123",
		SessionSecret:   []byte("x"),
		SessionTTL:      time.Minute,
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}
