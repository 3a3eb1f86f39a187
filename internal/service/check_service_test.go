package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	in := checkInput()
	in.StatusCode = []int{201, 200, 201}
	check, err := h.checks.Create(ctx, token, in)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", check.Phone)
	assert.Len(t, check.CheckID, domain.CheckIDLength)
	assert.Equal(t, []int{200, 201}, check.StatusCode)

	account := h.storedAccount(t, "12345678901")
	assert.Equal(t, []string{check.CheckID}, account.Checks)
	assert.Equal(t, h.clock.Now().UnixMilli(), account.UpdatedAt)
}

func TestCheckCreateRequiresSession(t *testing.T) {
	h := newHarness(t)
	h.register(t, "12345678901")

	_, err := h.checks.Create(context.Background(), "abcdefghij0123456789", checkInput())
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 0, h.records.Calls(store.OpCreate, store.CollectionChecks))
}

func TestCheckCreateQuota(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	for i := 0; i < domain.DefaultMaxChecks; i++ {
		_, err := h.checks.Create(ctx, token, checkInput())
		require.NoError(t, err)
	}

	_, err := h.checks.Create(ctx, token, checkInput())
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Len(t, h.storedAccount(t, "12345678901").Checks, domain.DefaultMaxChecks)
}

func TestCheckCreateConcurrentRespectsQuota(t *testing.T) {
	h := newHarness(t, WithMaxChecks(3))
	ctx := context.Background()
	token := h.register(t, "12345678901")

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.checks.Create(ctx, token, checkInput())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errors.Is(err, ErrQuotaExceeded))
	}
	assert.Equal(t, 3, created)

	account := h.storedAccount(t, "12345678901")
	assert.Len(t, account.Checks, 3)
	for _, id := range account.Checks {
		assert.True(t, h.records.Has(store.CollectionChecks, id))
	}
}

func TestCheckCreateCompensatesWhenAccountUpdateFails(t *testing.T) {
	h := newHarness(t, WithIDGenerator(sequenceIDs("cccccccccccccccccccc")))
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, accountInput("12345678901"))
	require.NoError(t, err)
	require.NoError(t, h.records.BaseCreate(ctx, store.CollectionSessions, "abcdefghij0123456789",
		domain.NewSession("abcdefghij0123456789", "12345678901", h.clock.Now(), domain.DefaultSessionTTL)))

	h.records.UpdateFn = func(ctx context.Context, collection, key string, value any) error {
		if collection == store.CollectionAccounts {
			return store.ErrStorageIO
		}
		return h.records.BaseUpdate(ctx, collection, key, value)
	}

	_, err = h.checks.Create(ctx, "abcdefghij0123456789", checkInput())
	assert.True(t, errors.Is(err, store.ErrStorageIO))
	assert.False(t, h.records.Has(store.CollectionChecks, "cccccccccccccccccccc"))
	assert.Empty(t, h.storedAccount(t, "12345678901").Checks)
}

func TestCheckCreateTargetPolicy(t *testing.T) {
	h := newHarness(t, WithTargetPolicy(domain.TargetPolicy{BlockPrivate: true}))
	ctx := context.Background()
	token := h.register(t, "12345678901")

	in := checkInput()
	in.Website = "127.0.0.1:8080/health"
	_, err := h.checks.Create(ctx, token, in)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Website"}, verr.FieldNames())
}

func TestCheckGetOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "12345678901")
	other := h.register(t, "10987654321")

	check, err := h.checks.Create(ctx, owner, checkInput())
	require.NoError(t, err)

	got, err := h.checks.Get(ctx, owner, check.CheckID)
	require.NoError(t, err)
	assert.Equal(t, check, got)

	_, err = h.checks.Get(ctx, other, check.CheckID)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = h.checks.Get(ctx, owner, "zzzzzzzzzzzzzzzzzzzz")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = h.checks.Get(ctx, owner, "short")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCheckList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	first, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)
	second, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)
	require.NoError(t, h.records.BaseDelete(ctx, store.CollectionChecks, first.CheckID))

	checks, err := h.checks.List(ctx, token)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, second.CheckID, checks[0].CheckID)
}

func TestCheckUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "12345678901")
	other := h.register(t, "10987654321")

	check, err := h.checks.Create(ctx, owner, checkInput())
	require.NoError(t, err)

	timeout := 5
	method := "post"
	updated, err := h.checks.Update(ctx, owner, domain.UpdateCheckInput{
		CheckID: check.CheckID,
		Method:  &method,
		Timeout: &timeout,
	})
	require.NoError(t, err)
	assert.Equal(t, "POST", updated.Method)
	assert.Equal(t, 5, updated.Timeout)
	assert.Equal(t, check.Website, updated.Website)

	got, err := h.checks.Get(ctx, owner, check.CheckID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = h.checks.Update(ctx, other, domain.UpdateCheckInput{CheckID: check.CheckID, Timeout: &timeout})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = h.checks.Update(ctx, owner, domain.UpdateCheckInput{CheckID: check.CheckID})
	assert.True(t, errors.Is(err, domain.ErrNoFieldsToUpdate))
}

func TestCheckDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	keep, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)
	drop, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)

	require.NoError(t, h.checks.Delete(ctx, token, drop.CheckID))

	_, err = h.checks.Get(ctx, token, drop.CheckID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.Equal(t, []string{keep.CheckID}, h.storedAccount(t, "12345678901").Checks)
}

func TestCheckDeleteDetectsDrift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	check, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)

	account := h.storedAccount(t, "12345678901")
	account.Checks = []string{}
	require.NoError(t, h.records.BaseUpdate(ctx, store.CollectionAccounts, account.Phone, account))

	err = h.checks.Delete(ctx, token, check.CheckID)
	assert.True(t, errors.Is(err, ErrConsistency))
	assert.False(t, h.records.Has(store.CollectionChecks, check.CheckID))
}

func TestCheckDeleteConcurrentWithAccountDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	check, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)

	accountDone := make(chan error, 1)
	var once sync.Once
	h.records.DeleteFn = func(ctx context.Context, collection, key string) error {
		if collection == store.CollectionChecks && key == check.CheckID {
			once.Do(func() {
				go func() { accountDone <- h.accounts.Delete(ctx, token, "12345678901") }()
				select {
				case err := <-accountDone:
					t.Errorf("account delete finished while check delete was in progress: %v", err)
				case <-time.After(50 * time.Millisecond):
				}
			})
		}
		return h.records.BaseDelete(ctx, collection, key)
	}

	require.NoError(t, h.checks.Delete(ctx, token, check.CheckID))

	select {
	case err := <-accountDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("account delete did not finish")
	}

	assert.False(t, h.records.Has(store.CollectionChecks, check.CheckID))
	assert.False(t, h.records.Has(store.CollectionAccounts, "12345678901"))
}

func TestCheckCreateRemovesRecordAfterTimeout(t *testing.T) {
	h := newHarness(t, WithIDGenerator(sequenceIDs("cccccccccccccccccccc")))
	ctx := context.Background()

	_, err := h.accounts.Create(ctx, accountInput("12345678901"))
	require.NoError(t, err)
	require.NoError(t, h.records.BaseCreate(ctx, store.CollectionSessions, "abcdefghij0123456789",
		domain.NewSession("abcdefghij0123456789", "12345678901", h.clock.Now(), domain.DefaultSessionTTL)))

	// The write lands but the caller sees a timeout.
	h.records.CreateFn = func(ctx context.Context, collection, key string, value any) error {
		if err := h.records.BaseCreate(ctx, collection, key, value); err != nil {
			return err
		}
		if collection == store.CollectionChecks {
			return store.NewStoreError(collection, key, store.OpCreate, "deadline exceeded", store.ErrTimeout)
		}
		return nil
	}

	_, err = h.checks.Create(ctx, "abcdefghij0123456789", checkInput())
	assert.True(t, errors.Is(err, store.ErrTimeout))
	assert.False(t, h.records.Has(store.CollectionChecks, "cccccccccccccccccccc"))
	assert.Empty(t, h.storedAccount(t, "12345678901").Checks)
}

func TestCheckLookupsRejectPaddedID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.register(t, "12345678901")

	check, err := h.checks.Create(ctx, token, checkInput())
	require.NoError(t, err)

	_, err = h.checks.Get(ctx, token, " "+check.CheckID)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.True(t, errors.Is(h.checks.Delete(ctx, token, check.CheckID+" "), domain.ErrValidation))
	assert.True(t, h.records.Has(store.CollectionChecks, check.CheckID))
}
