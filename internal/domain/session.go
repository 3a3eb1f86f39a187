package domain

import (
	"strings"
	"time"
)

// TokenLength is the length of a session token.
const TokenLength = 20

// DefaultSessionTTL is how long a new or extended session stays active.
const DefaultSessionTTL = 24 * time.Hour

// Session binds a bearer token to an account phone until Expire (unix ms).
type Session struct {
	SessionID string `json:"SessionID"`
	Phone     string `json:"Phone"`
	Expire    int64  `json:"Expire"`
}

// NewSession creates a session that expires ttl after now.
func NewSession(id, phone string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		SessionID: id,
		Phone:     phone,
		Expire:    now.Add(ttl).UnixMilli(),
	}
}

// IsActive reports whether the session has not yet expired at now.
func (s *Session) IsActive(now time.Time) bool {
	return now.UnixMilli() < s.Expire
}

// BelongsTo reports whether the session is active at now and bound to phone.
func (s *Session) BelongsTo(phone string, now time.Time) bool {
	return s.Phone == phone && s.IsActive(now)
}

// Extend moves the expiry to ttl after now.
func (s *Session) Extend(now time.Time, ttl time.Duration) {
	s.Expire = now.Add(ttl).UnixMilli()
}

// ExpiresAt returns the expiry as a time value.
func (s *Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.Expire)
}

// CreateSessionInput holds login credentials.
type CreateSessionInput struct {
	Phone    string `json:"Phone"    validate:"required,len=11,digits"`
	Password string `json:"Password" validate:"required,password"`
}

// Validate trims the phone and validates the credentials. The password is
// left untouched so it hashes to the stored digest.
func (in *CreateSessionInput) Validate() error {
	in.Phone = strings.TrimSpace(in.Phone)
	return ValidateStruct(in)
}

// ExtendSessionInput requests a renewal of an active session.
type ExtendSessionInput struct {
	SessionID string `json:"SessionID" validate:"required,len=20,token"`
	Extend    bool   `json:"Extend"    validate:"required"`
}

// Validate trims and validates the renewal request.
func (in *ExtendSessionInput) Validate() error {
	in.SessionID = strings.TrimSpace(in.SessionID)
	return ValidateStruct(in)
}

// ValidToken reports whether s has the shape of a session token or check id.
func ValidToken(s string) bool {
	return len(s) == TokenLength && tokenRegex.MatchString(s)
}

// ValidateToken checks the shape of an identifier named field. Surrounding
// whitespace fails the shape check.
func ValidateToken(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return NewValidationError(field, "is required", nil)
	}
	if !ValidToken(s) {
		return NewValidationError(field, "must be 20 lowercase letters or digits", nil)
	}
	return nil
}
