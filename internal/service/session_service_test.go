package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, accountInput("12345678901"))
	require.NoError(t, err)

	session, err := h.sessions.Create(ctx, domain.CreateSessionInput{Phone: "12345678901", Password: "correcthorse"})
	require.NoError(t, err)
	assert.Equal(t, "12345678901", session.Phone)
	assert.True(t, domain.ValidToken(session.SessionID))
	assert.Equal(t, h.clock.Now().Add(24*time.Hour).UnixMilli(), session.Expire)

	stored, err := h.sessions.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session, stored)
}

func TestSessionLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, accountInput("12345678901"))
	require.NoError(t, err)

	_, wrongPassword := h.sessions.Create(ctx, domain.CreateSessionInput{Phone: "12345678901", Password: "wronghorse"})
	_, unknownPhone := h.sessions.Create(ctx, domain.CreateSessionInput{Phone: "10987654321", Password: "correcthorse"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownPhone)
	assert.Equal(t, wrongPassword, unknownPhone)
	assert.True(t, errors.Is(wrongPassword, ErrInvalidCredentials))
	assert.Equal(t, 0, h.records.Calls(store.OpCreate, store.CollectionSessions))
}

func TestSessionVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	assert.True(t, h.sessions.Verify(ctx, token, "12345678901"))
	assert.False(t, h.sessions.Verify(ctx, token, "10987654321"))
	assert.False(t, h.sessions.Verify(ctx, "", "12345678901"))
	assert.False(t, h.sessions.Verify(ctx, "../Accounts/12345678", "12345678901"))
	assert.False(t, h.sessions.Verify(ctx, "abcdefghij0123456789", "12345678901"))

	h.clock.Advance(24*time.Hour - time.Millisecond)
	assert.True(t, h.sessions.Verify(ctx, token, "12345678901"))

	h.clock.Advance(time.Millisecond)
	assert.False(t, h.sessions.Verify(ctx, token, "12345678901"), "a session is invalid at its expiry instant")
}

func TestSessionVerifyNeverErrorsOnStorageFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	h.records.ReadFn = func(ctx context.Context, collection, key string, dst any) error {
		return store.ErrTimeout
	}
	assert.False(t, h.sessions.Verify(ctx, token, "12345678901"))
}

func TestSessionExtend(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	h.clock.Advance(time.Hour)
	extended, err := h.sessions.Extend(ctx, domain.ExtendSessionInput{SessionID: token, Extend: true})
	require.NoError(t, err)
	assert.Equal(t, h.clock.Now().Add(24*time.Hour).UnixMilli(), extended.Expire)

	_, err = h.sessions.Extend(ctx, domain.ExtendSessionInput{SessionID: token})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	h.clock.Advance(25 * time.Hour)
	_, err = h.sessions.Extend(ctx, domain.ExtendSessionInput{SessionID: token, Extend: true})
	assert.True(t, errors.Is(err, ErrSessionExpired))

	_, err = h.sessions.Extend(ctx, domain.ExtendSessionInput{SessionID: "abcdefghij0123456789", Extend: true})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSessionDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	require.NoError(t, h.sessions.Delete(ctx, token))
	assert.False(t, h.sessions.Verify(ctx, token, "12345678901"))
	assert.True(t, errors.Is(h.sessions.Delete(ctx, token), store.ErrNotFound))
	assert.True(t, errors.Is(h.sessions.Delete(ctx, "bad"), domain.ErrValidation))

	_, err := h.sessions.Get(ctx, token)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSessionOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	phone, err := h.sessions.Owner(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", phone)

	_, err = h.sessions.Owner(ctx, "abcdefghij0123456789")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	h.clock.Advance(48 * time.Hour)
	_, err = h.sessions.Owner(ctx, token)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestSessionTokenCollisionRegenerates(t *testing.T) {
	h := newHarness(t, WithIDGenerator(sequenceIDs(
		"aaaaaaaaaaaaaaaaaaaa",
		"aaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbb",
		"bbbbbbbbbbbbbbbbbbbb",
		"bbbbbbbbbbbbbbbbbbbb",
		"bbbbbbbbbbbbbbbbbbbb",
	)))
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, accountInput("12345678901"))
	require.NoError(t, err)
	login := domain.CreateSessionInput{Phone: "12345678901", Password: "correcthorse"}

	first, err := h.sessions.Create(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa", first.SessionID)

	second, err := h.sessions.Create(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbb", second.SessionID)

	_, err = h.sessions.Create(ctx, login)
	assert.True(t, errors.Is(err, store.ErrAlreadyExists), "gives up after three collisions")
}

// TestConcreteScenario walks the documented example end to end.
func TestConcreteScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, domain.CreateAccountInput{
		Name:         "Sara",
		Family:       "Ahmadi",
		FatherName:   "Reza",
		Phone:        "12345678901",
		Password:     "longpassword1",
		NationalCode: "1234567890",
		Gender:       domain.GenderFemale,
		Address:      "Tehran",
		TosAgreement: true,
	})
	require.NoError(t, err)

	dup := accountInput("12345678901")
	_, err = h.accounts.Create(ctx, dup)
	assert.True(t, errors.Is(err, store.ErrAlreadyExists))

	session, err := h.sessions.Create(ctx, domain.CreateSessionInput{Phone: "12345678901", Password: "longpassword1"})
	require.NoError(t, err)
	assert.Len(t, session.SessionID, 20)
	assert.Greater(t, session.Expire, h.clock.Now().UnixMilli())

	assert.True(t, h.sessions.Verify(ctx, session.SessionID, "12345678901"))
	assert.False(t, h.sessions.Verify(ctx, session.SessionID, "10987654321"))
}
