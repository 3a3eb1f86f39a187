package service

import (
	"time"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/service/auth"
)

// maxIDAttempts bounds regeneration of colliding session tokens and check ids.
const maxIDAttempts = 3

// Option customizes a service.
type Option func(*options)

type options struct {
	now        func() time.Time
	generateID auth.IDGenerator
	sessionTTL time.Duration
	maxChecks  int
	targets    domain.TargetPolicy
}

func defaultOptions() options {
	return options{
		now:        time.Now,
		generateID: auth.RandomString,
		sessionTTL: domain.DefaultSessionTTL,
		maxChecks:  domain.DefaultMaxChecks,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the token and check id generator.
func WithIDGenerator(gen auth.IDGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.generateID = gen
		}
	}
}

// WithSessionTTL sets how long created and extended sessions stay active.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.sessionTTL = ttl
		}
	}
}

// WithMaxChecks sets the per-account check quota.
func WithMaxChecks(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxChecks = n
		}
	}
}

// WithTargetPolicy sets the static validation applied to check targets.
func WithTargetPolicy(p domain.TargetPolicy) Option {
	return func(o *options) {
		o.targets = p
	}
}
