package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/mocks"
	"github.com/phrazzld/pulse-api/internal/service/auth"
	"github.com/phrazzld/pulse-api/internal/store"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1700000000000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness wires the three services over one record store.
type harness struct {
	records  *mocks.MockRecordStore
	clock    *fakeClock
	accounts AccountService
	sessions SessionService
	checks   CheckService
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	records := mocks.NewMockRecordStore()
	clock := newFakeClock()
	hasher, err := auth.NewHasher(auth.AlgorithmHMACSHA256, "test-secret")
	require.NoError(t, err)

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	locks := store.NewKeyedMutex()
	accountStore := store.NewAccountCollection(records)
	sessionStore := store.NewSessionCollection(records)
	checkStore := store.NewCheckCollection(records)

	sessions, err := NewSessionService(sessionStore, accountStore, hasher, locks, nil, opts...)
	require.NoError(t, err)
	accounts, err := NewAccountService(accountStore, checkStore, sessions, hasher, locks, nil, opts...)
	require.NoError(t, err)
	checks, err := NewCheckService(checkStore, accountStore, sessions, locks, nil, opts...)
	require.NoError(t, err)

	return &harness{
		records:  records,
		clock:    clock,
		accounts: accounts,
		sessions: sessions,
		checks:   checks,
	}
}

func accountInput(phone string) domain.CreateAccountInput {
	return domain.CreateAccountInput{
		Name:         "Ada",
		Family:       "Lovelace",
		FatherName:   "George",
		Phone:        phone,
		Password:     "correcthorse",
		NationalCode: "0123456789",
		Gender:       domain.GenderFemale,
		Address:      "12 Analytical St",
		TosAgreement: true,
	}
}

func checkInput() domain.CreateCheckInput {
	return domain.CreateCheckInput{
		Protocol:   "https",
		Method:     "GET",
		Website:    "example.com/health",
		StatusCode: []int{200},
		Timeout:    3,
	}
}

// register creates an account and logs in, returning the session token.
func (h *harness) register(t *testing.T, phone string) string {
	t.Helper()
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, accountInput(phone))
	require.NoError(t, err)

	session, err := h.sessions.Create(ctx, domain.CreateSessionInput{Phone: phone, Password: "correcthorse"})
	require.NoError(t, err)
	return session.SessionID
}

// storedAccount reads the account record directly, digest included.
func (h *harness) storedAccount(t *testing.T, phone string) *domain.Account {
	t.Helper()
	account, err := store.NewAccountCollection(h.records).Get(context.Background(), phone)
	require.NoError(t, err)
	return account
}

// sequenceIDs returns a generator yielding ids in order, then failing.
func sequenceIDs(ids ...string) auth.IDGenerator {
	var mu sync.Mutex
	return func(n int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return "", fmt.Errorf("no more ids")
		}
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
}
