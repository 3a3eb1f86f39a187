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

// SessionVerifier answers whether a token authorizes work on an account.
// It is the part of SessionService the account and check services use.
type SessionVerifier interface {
	// Verify reports whether token names an active session bound to phone.
	// It never returns an error; any failure counts as not verified.
	Verify(ctx context.Context, token, phone string) bool

	// Owner returns the phone bound to an active session, or ErrUnauthorized.
	Owner(ctx context.Context, token string) (string, error)

	// Delete removes the session.
	Delete(ctx context.Context, token string) error
}

// SessionService provides login, lookup, renewal and logout.
type SessionService interface {
	SessionVerifier

	// Create logs in with phone and password and returns a new session.
	// Returns ErrInvalidCredentials for an unknown phone or a wrong password.
	Create(ctx context.Context, in domain.CreateSessionInput) (*domain.Session, error)

	// Get returns the session for token.
	Get(ctx context.Context, token string) (*domain.Session, error)

	// Extend renews an active session for another TTL.
	// Returns ErrSessionExpired if the session is no longer active.
	Extend(ctx context.Context, in domain.ExtendSessionInput) (*domain.Session, error)
}

type sessionServiceImpl struct {
	sessions store.SessionStore
	accounts store.AccountStore
	hasher   auth.Hasher
	locks    *store.KeyedMutex
	opts     options
	logger   *slog.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(
	sessions store.SessionStore,
	accounts store.AccountStore,
	hasher auth.Hasher,
	locks *store.KeyedMutex,
	logger *slog.Logger,
	opts ...Option,
) (SessionService, error) {
	if sessions == nil {
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	}
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if locks == nil {
		locks = store.NewKeyedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &sessionServiceImpl{
		sessions: sessions,
		accounts: accounts,
		hasher:   hasher,
		locks:    locks,
		opts:     applyOptions(opts),
		logger:   logger.With(slog.String("component", "session_service")),
	}, nil
}

// Create implements SessionService.Create
func (s *sessionServiceImpl) Create(
	ctx context.Context,
	in domain.CreateSessionInput,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.Get(ctx, in.Phone)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to load account for login", slog.String("error", err.Error()))
			return nil, NewServiceError("create_session", "failed to load account", err)
		}
		// Hash anyway so unknown phones take as long as wrong passwords.
		_, _ = s.hasher.Hash(in.Password)
		log.Debug("login for unknown account")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(account.SHAPassword, in.Password) {
		log.Debug("login with wrong password")
		return nil, ErrInvalidCredentials
	}

	var session *domain.Session
	err = createWithFreshID(s.opts.generateID, domain.TokenLength, func(id string) error {
		session = domain.NewSession(id, account.Phone, s.opts.now(), s.opts.sessionTTL)
		return s.sessions.Create(ctx, session)
	})
	if err != nil {
		log.Error("failed to create session", slog.String("error", err.Error()))
		return nil, NewServiceError("create_session", "failed to save session", err)
	}

	log.Info("session created", slog.Int64("expire", session.Expire))
	return session, nil
}

// Get implements SessionService.Get
func (s *sessionServiceImpl) Get(ctx context.Context, token string) (*domain.Session, error) {
	if err := domain.ValidateToken("SessionID", token); err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Extend implements SessionService.Extend
func (s *sessionServiceImpl) Extend(
	ctx context.Context,
	in domain.ExtendSessionInput,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(store.RecordKey(store.CollectionSessions, in.SessionID))
	defer unlock()

	session, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	if !session.IsActive(now) {
		log.Debug("refusing to extend expired session")
		return nil, ErrSessionExpired
	}

	session.Extend(now, s.opts.sessionTTL)
	if err := s.sessions.Update(ctx, session); err != nil {
		log.Error("failed to extend session", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("session extended", slog.Int64("expire", session.Expire))
	return session, nil
}

// Delete implements SessionVerifier.Delete
func (s *sessionServiceImpl) Delete(ctx context.Context, token string) error {
	if err := domain.ValidateToken("SessionID", token); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("session deleted")
	return nil
}

// Verify implements SessionVerifier.Verify
func (s *sessionServiceImpl) Verify(ctx context.Context, token, phone string) bool {
	if !domain.ValidToken(token) || phone == "" {
		return false
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Warn("session lookup failed during verify",
				slog.String("error", err.Error()))
		}
		return false
	}
	return session.BelongsTo(phone, s.opts.now())
}

// Owner implements SessionVerifier.Owner
func (s *sessionServiceImpl) Owner(ctx context.Context, token string) (string, error) {
	if !domain.ValidToken(token) {
		return "", ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if store.IsNotFoundError(err) && !errors.Is(err, store.ErrStorageIO) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if !session.IsActive(s.opts.now()) {
		return "", ErrUnauthorized
	}
	return session.Phone, nil
}

// createWithFreshID calls create with newly generated ids until one does not
// collide, giving up after maxIDAttempts.
func createWithFreshID(gen auth.IDGenerator, length int, create func(id string) error) error {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var id string
		id, err = gen(length)
		if err != nil {
			return err
		}
		err = create(id)
		if err == nil || !errors.Is(err, store.ErrAlreadyExists) {
			return err
		}
	}
	return err
}
