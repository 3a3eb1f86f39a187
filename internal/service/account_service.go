package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/platform/logger"
	"github.com/phrazzld/pulse-api/internal/service/auth"
	"github.com/phrazzld/pulse-api/internal/store"
)

// AccountService provides account registration and session-guarded
// account management.
type AccountService interface {
	// Create registers a new account. Returns ErrAccountExists if the phone
	// is already registered.
	Create(ctx context.Context, in domain.CreateAccountInput) (*domain.Account, error)

	// Get returns the account for phone without its password digest.
	Get(ctx context.Context, token, phone string) (*domain.Account, error)

	// Update changes the present fields of the account named by in.Phone.
	Update(ctx context.Context, token string, in domain.UpdateAccountInput) (*domain.Account, error)

	// Delete removes the account, every check it owns and the session used
	// for the request.
	Delete(ctx context.Context, token, phone string) error
}

type accountServiceImpl struct {
	accounts store.AccountStore
	checks   store.CheckStore
	sessions SessionVerifier
	hasher   auth.Hasher
	locks    *store.KeyedMutex
	opts     options
	logger   *slog.Logger
}

// NewAccountService creates an AccountService. The locks must be shared with
// the CheckService so both serialize changes to the same account.
func NewAccountService(
	accounts store.AccountStore,
	checks store.CheckStore,
	sessions SessionVerifier,
	hasher auth.Hasher,
	locks *store.KeyedMutex,
	logger *slog.Logger,
	opts ...Option,
) (AccountService, error) {
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if checks == nil {
		return nil, domain.NewValidationError("checks", "cannot be nil", domain.ErrValidation)
	}
	if sessions == nil {
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if locks == nil {
		return nil, domain.NewValidationError("locks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &accountServiceImpl{
		accounts: accounts,
		checks:   checks,
		sessions: sessions,
		hasher:   hasher,
		locks:    locks,
		opts:     applyOptions(opts),
		logger:   logger.With(slog.String("component", "account_service")),
	}, nil
}

// Create implements AccountService.Create
func (s *accountServiceImpl) Create(
	ctx context.Context,
	in domain.CreateAccountInput,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		log.Debug("account input failed validation", slog.String("error", err.Error()))
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, NewServiceError("create_account", "failed to hash password", err)
	}

	account := domain.NewAccount(in, digest, s.opts.now())
	if err := s.accounts.Create(ctx, account); err != nil {
		if store.IsAlreadyExistsError(err) {
			log.Debug("phone already registered")
			return nil, ErrAccountExists
		}
		log.Error("failed to create account", slog.String("error", err.Error()))
		return nil, NewServiceError("create_account", "failed to save account", err)
	}

	log.Info("account created", slog.Int("gender", int(account.Gender)))
	return account.Public(), nil
}

// Get implements AccountService.Get
func (s *accountServiceImpl) Get(ctx context.Context, token, phone string) (*domain.Account, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return nil, err
	}
	if !s.sessions.Verify(ctx, token, phone) {
		return nil, ErrUnauthorized
	}

	account, err := s.accounts.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

// Update implements AccountService.Update
func (s *accountServiceImpl) Update(
	ctx context.Context,
	token string,
	in domain.UpdateAccountInput,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !s.sessions.Verify(ctx, token, in.Phone) {
		return nil, ErrUnauthorized
	}

	unlock := s.locks.Lock(store.RecordKey(store.CollectionAccounts, in.Phone))
	defer unlock()

	account, err := s.accounts.Get(ctx, in.Phone)
	if err != nil {
		return nil, err
	}

	account.Apply(in)
	if in.Password != nil {
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, NewServiceError("update_account", "failed to hash password", err)
		}
		account.SHAPassword = digest
	}
	account.Touch(s.opts.now())

	if err := s.accounts.Update(ctx, account); err != nil {
		log.Error("failed to update account", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("account updated", slog.Bool("password_changed", in.Password != nil))
	return account.Public(), nil
}

// Delete implements AccountService.Delete
// Owned checks are deleted first. A check that is already gone counts as
// deleted. If any other check delete fails, the account is rewritten to list
// only the checks that remain and a *CascadeError is returned.
func (s *accountServiceImpl) Delete(ctx context.Context, token, phone string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePhone(phone); err != nil {
		return err
	}
	if !s.sessions.Verify(ctx, token, phone) {
		return ErrUnauthorized
	}

	unlock := s.locks.Lock(store.RecordKey(store.CollectionAccounts, phone))
	defer unlock()

	account, err := s.accounts.Get(ctx, phone)
	if err != nil {
		return err
	}

	if err := s.deleteOwnedChecks(ctx, log, account); err != nil {
		return err
	}

	if err := s.accounts.Delete(ctx, phone); err != nil {
		log.Error("failed to delete account", slog.String("error", err.Error()))
		return err
	}

	if err := s.sessions.Delete(ctx, token); err != nil && !store.IsNotFoundError(err) {
		log.Warn("failed to revoke session after account delete", slog.String("error", err.Error()))
	}

	log.Info("account deleted")
	return nil
}

func (s *accountServiceImpl) deleteOwnedChecks(
	ctx context.Context,
	log *slog.Logger,
	account *domain.Account,
) error {
	var (
		deleted   []string
		remaining []string
		firstErr  error
	)

	for _, id := range account.Checks {
		err := s.checks.Delete(ctx, id)
		if err == nil || (store.IsNotFoundError(err) && !errors.Is(err, store.ErrStorageIO)) {
			deleted = append(deleted, id)
			continue
		}
		log.Error("failed to delete owned check",
			slog.String("check_id", id),
			slog.String("error", err.Error()))
		remaining = append(remaining, id)
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		log.Debug("owned checks deleted", slog.Int("count", len(deleted)))
		return nil
	}

	account.Checks = remaining
	account.Touch(s.opts.now())
	if err := s.accounts.Update(ctx, account); err != nil {
		log.Error("failed to record remaining checks after partial delete",
			slog.String("error", err.Error()))
	}

	return &CascadeError{
		Phone:     account.Phone,
		Deleted:   deleted,
		Remaining: remaining,
		Err:       firstErr,
	}
}
