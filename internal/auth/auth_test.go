package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sportstore/internal/model"
	"sportstore/internal/storage/memory"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newAuth(t *testing.T) (*Service, *memory.Store, *clock) {
	t.Helper()
	store := memory.New()
	svc, err := NewService(store, nil, "test-secret", time.Hour)
	require.NoError(t, err)
	svc.cost = bcrypt.MinCost
	c := &clock{t: time.Now()}
	svc.now = c.now
	_, err = svc.CreateUser(context.Background(), " Admin@Shop.test ", "correct horse")
	require.NoError(t, err)
	return svc, store, c
}

func TestSignInAndGetSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)

	sess, token, err := svc.SignIn(ctx, "admin@shop.test", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin@shop.test", sess.Email)

	got, err := svc.GetSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.UserID, got.UserID)
}

func TestSignInFailuresLookTheSame(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newAuth(t)

	_, _, wrongPassword := svc.SignIn(ctx, "admin@shop.test", "wrong password")
	_, _, unknownEmail := svc.SignIn(ctx, "nobody@shop.test", "correct horse")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	n, err := store.Count(ctx, model.CollectionSessions)
	require.NoError(t, err)
	assert.Zero(t, n, "no session may be recorded")
}

func TestSignOutEndsSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)
	_, token, err := svc.SignIn(ctx, "admin@shop.test", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, token))
	_, err = svc.GetSession(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)

	// Idempotent, and garbage is ignored.
	assert.NoError(t, svc.SignOut(ctx, token))
	assert.NoError(t, svc.SignOut(ctx, "not-a-token"))
	assert.NoError(t, svc.SignOut(ctx, ""))
}

func TestGetSessionRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newAuth(t)
	_, token, err := svc.SignIn(ctx, "admin@shop.test", "correct horse")
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.GetSession(ctx, token+"x")
	assert.ErrorIs(t, err, ErrNoSession, "tampered signature")

	other, err := NewService(memory.New(), nil, "other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.GetSession(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession, "foreign secret")

	c.t = c.t.Add(2 * time.Hour)
	_, err = svc.GetSession(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession, "expired")
}

func TestGetSessionStoreFailureIsNotSignedOut(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newAuth(t)
	_, token, err := svc.SignIn(ctx, "admin@shop.test", "correct horse")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	store.FailOn("get", model.CollectionSessions, boom)
	_, err = svc.GetSession(ctx, token)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)

	_, err := svc.CreateUser(ctx, "ADMIN@shop.test", "another password")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.CreateUser(ctx, "not-an-email", "long enough")
	assert.Error(t, err)

	_, err = svc.CreateUser(ctx, "new@shop.test", "short")
	assert.Error(t, err)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	svc, store, c := newAuth(t)
	_, _, err := svc.SignIn(ctx, "admin@shop.test", "correct horse")
	require.NoError(t, err)

	c.t = c.t.Add(30 * time.Minute)
	_, _, err = svc.SignIn(ctx, "admin@shop.test", "correct horse")
	require.NoError(t, err)

	c.t = c.t.Add(45 * time.Minute)
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left, err := store.Count(ctx, model.CollectionSessions)
	require.NoError(t, err)
	assert.Equal(t, 1, left)
}
