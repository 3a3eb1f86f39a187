package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/platform/logger"
	"github.com/phrazzld/pulse-api/internal/store"
)

// CheckService manages the check definitions owned by accounts.
type CheckService interface {
	// Create defines a new check for the session's account.
	// Returns ErrQuotaExceeded when the account already owns the maximum.
	Create(ctx context.Context, token string, in domain.CreateCheckInput) (*domain.Check, error)

	// Get returns a check owned by the session's account.
	Get(ctx context.Context, token, checkID string) (*domain.Check, error)

	// List returns every check owned by the session's account.
	List(ctx context.Context, token string) ([]*domain.Check, error)

	// Update changes the present fields of a check.
	Update(ctx context.Context, token string, in domain.UpdateCheckInput) (*domain.Check, error)

	// Delete removes a check and its id from the owning account.
	Delete(ctx context.Context, token, checkID string) error
}

type checkServiceImpl struct {
	checks   store.CheckStore
	accounts store.AccountStore
	sessions SessionVerifier
	locks    *store.KeyedMutex
	opts     options
	logger   *slog.Logger
}

// NewCheckService creates a CheckService. The locks must be shared with the
// AccountService.
func NewCheckService(
	checks store.CheckStore,
	accounts store.AccountStore,
	sessions SessionVerifier,
	locks *store.KeyedMutex,
	logger *slog.Logger,
	opts ...Option,
) (CheckService, error) {
	if checks == nil {
		return nil, domain.NewValidationError("checks", "cannot be nil", domain.ErrValidation)
	}
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if sessions == nil {
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	}
	if locks == nil {
		return nil, domain.NewValidationError("locks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &checkServiceImpl{
		checks:   checks,
		accounts: accounts,
		sessions: sessions,
		locks:    locks,
		opts:     applyOptions(opts),
		logger:   logger.With(slog.String("component", "check_service")),
	}, nil
}

// Create implements CheckService.Create
// The check record is written before the account lists it. If the account
// update then fails, or the check write times out and may still land, the
// new check record is deleted again.
func (s *checkServiceImpl) Create(
	ctx context.Context,
	token string,
	in domain.CreateCheckInput,
) (*domain.Check, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.opts.targets.Validate(in.Protocol, in.Website); err != nil {
		return nil, err
	}

	phone, err := s.sessions.Owner(ctx, token)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(store.RecordKey(store.CollectionAccounts, phone))
	defer unlock()

	account, err := s.accounts.Get(ctx, phone)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("session refers to a missing account")
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if len(account.Checks) >= s.opts.maxChecks {
		log.Debug("check quota reached", slog.Int("max_checks", s.opts.maxChecks))
		return nil, ErrQuotaExceeded
	}

	var check *domain.Check
	err = createWithFreshID(s.opts.generateID, domain.CheckIDLength, func(id string) error {
		check = domain.NewCheck(id, phone, in)
		return s.checks.Create(ctx, check)
	})
	if err != nil {
		log.Error("failed to create check", slog.String("error", err.Error()))
		if check != nil && errors.Is(err, store.ErrTimeout) {
			// A timed-out write may still commit after the deadline.
			s.discardCheck(ctx, log, check.CheckID)
		}
		return nil, NewServiceError("create_check", "failed to save check", err)
	}

	account.AddCheck(check.CheckID)
	account.Touch(s.opts.now())
	if err := s.accounts.Update(ctx, account); err != nil {
		log.Error("failed to add check to account, removing check",
			slog.String("check_id", check.CheckID),
			slog.String("error", err.Error()))
		s.discardCheck(ctx, log, check.CheckID)
		return nil, NewServiceError("create_check", "failed to add check to account", err)
	}

	log.Info("check created",
		slog.String("check_id", check.CheckID),
		slog.Int("check_count", len(account.Checks)))
	return check, nil
}

// Get implements CheckService.Get
func (s *checkServiceImpl) Get(ctx context.Context, token, checkID string) (*domain.Check, error) {
	if err := domain.ValidateToken("CheckID", checkID); err != nil {
		return nil, err
	}
	return s.owned(ctx, token, checkID)
}

// List implements CheckService.List
func (s *checkServiceImpl) List(ctx context.Context, token string) ([]*domain.Check, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	phone, err := s.sessions.Owner(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Get(ctx, phone)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	checks := make([]*domain.Check, 0, len(account.Checks))
	for _, id := range account.Checks {
		check, err := s.checks.Get(ctx, id)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Warn("account lists a missing check", slog.String("check_id", id))
				continue
			}
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// Update implements CheckService.Update
func (s *checkServiceImpl) Update(
	ctx context.Context,
	token string,
	in domain.UpdateCheckInput,
) (*domain.Check, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(store.RecordKey(store.CollectionChecks, in.CheckID))
	defer unlock()

	check, err := s.owned(ctx, token, in.CheckID)
	if err != nil {
		return nil, err
	}

	check.Apply(in)
	if in.Protocol != nil || in.Website != nil {
		if err := s.opts.targets.Validate(check.Protocol, check.Website); err != nil {
			return nil, err
		}
	}

	if err := s.checks.Update(ctx, check); err != nil {
		log.Error("failed to update check",
			slog.String("check_id", check.CheckID),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("check updated", slog.String("check_id", check.CheckID))
	return check, nil
}

// Delete implements CheckService.Delete
// Under the owner's account lock the check record is removed first, then its
// id is removed from the account. An account that does not list the id
// yields ErrConsistency.
func (s *checkServiceImpl) Delete(ctx context.Context, token, checkID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateToken("CheckID", checkID); err != nil {
		return err
	}

	check, err := s.owned(ctx, token, checkID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(store.RecordKey(store.CollectionAccounts, check.Phone))
	defer unlock()

	if err := s.checks.Delete(ctx, checkID); err != nil {
		log.Error("failed to delete check",
			slog.String("check_id", checkID),
			slog.String("error", err.Error()))
		return err
	}

	account, err := s.accounts.Get(ctx, check.Phone)
	if err != nil {
		log.Error("check deleted but owner could not be loaded",
			slog.String("check_id", checkID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: owner of check %s: %w", ErrConsistency, checkID, err)
	}

	if !account.RemoveCheck(checkID) {
		log.Error("check deleted but owner does not list it", slog.String("check_id", checkID))
		return fmt.Errorf("%w: account does not list check %s", ErrConsistency, checkID)
	}

	account.Touch(s.opts.now())
	if err := s.accounts.Update(ctx, account); err != nil {
		log.Error("check deleted but owner could not be updated",
			slog.String("check_id", checkID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: update owner of check %s: %w", ErrConsistency, checkID, err)
	}

	log.Info("check deleted", slog.String("check_id", checkID))
	return nil
}

// discardCheck removes a check record that no account lists. The removal
// runs even if ctx is already done.
func (s *checkServiceImpl) discardCheck(ctx context.Context, log *slog.Logger, checkID string) {
	err := s.checks.Delete(context.WithoutCancel(ctx), checkID)
	if err != nil && !store.IsNotFoundError(err) {
		log.Error("failed to remove orphaned check",
			slog.String("check_id", checkID),
			slog.String("error", err.Error()))
	}
}

// owned loads a check and verifies that the session belongs to its owner.
func (s *checkServiceImpl) owned(ctx context.Context, token, checkID string) (*domain.Check, error) {
	check, err := s.checks.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if !s.sessions.Verify(ctx, token, check.Phone) {
		return nil, ErrUnauthorized
	}
	return check, nil
}
