package domain

import (
	"strings"
	"time"
)

// PhoneLength is the exact number of digits in an account phone number.
const PhoneLength = 11

// NationalCodeLength is the exact number of digits in a national code.
const NationalCodeLength = 10

// MinPasswordLength is the minimum length of a trimmed password.
const MinPasswordLength = 9

// Gender is the persisted gender code of an account.
type Gender int

const (
	GenderUnset  Gender = 0
	GenderMale   Gender = 1
	GenderFemale Gender = 2
)

// String returns the lowercase name of the gender.
func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unset"
	}
}

// Account is a registered user, keyed by phone number. The JSON field names
// are the persisted record format.
type Account struct {
	Name         string   `json:"Name"`
	Family       string   `json:"Family"`
	FatherName   string   `json:"FatherName"`
	Phone        string   `json:"Phone"`
	SHAPassword  string   `json:"SHAPassword,omitempty"`
	NationalCode string   `json:"NationalCode"`
	Gender       Gender   `json:"Gender"`
	Address      string   `json:"Address"`
	TosAgreement bool     `json:"TosAgreement"`
	Active       bool     `json:"Active"`
	Checks       []string `json:"Checks"`
	CreatedAt    int64    `json:"CreatedAt"`
	UpdatedAt    int64    `json:"UpdatedAt"`
}

// NewAccount builds a new account from validated input. The digest must be
// the hash of the input password; the plaintext is never stored.
func NewAccount(in CreateAccountInput, digest string, now time.Time) *Account {
	ts := now.UnixMilli()
	return &Account{
		Name:         in.Name,
		Family:       in.Family,
		FatherName:   in.FatherName,
		Phone:        in.Phone,
		SHAPassword:  digest,
		NationalCode: in.NationalCode,
		Gender:       in.Gender,
		Address:      in.Address,
		TosAgreement: in.TosAgreement,
		Active:       false,
		Checks:       []string{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// Public returns a copy of the account with the password digest removed.
func (a *Account) Public() *Account {
	out := *a
	out.SHAPassword = ""
	out.Checks = append([]string{}, a.Checks...)
	return &out
}

// Touch bumps UpdatedAt.
func (a *Account) Touch(now time.Time) {
	a.UpdatedAt = now.UnixMilli()
}

// HasCheck reports whether the account lists the check id.
func (a *Account) HasCheck(id string) bool {
	for _, c := range a.Checks {
		if c == id {
			return true
		}
	}
	return false
}

// AddCheck appends a check id.
func (a *Account) AddCheck(id string) {
	a.Checks = append(a.Checks, id)
}

// RemoveCheck removes a check id and reports whether it was present.
func (a *Account) RemoveCheck(id string) bool {
	for i, c := range a.Checks {
		if c == id {
			a.Checks = append(a.Checks[:i:i], a.Checks[i+1:]...)
			return true
		}
	}
	return false
}

// Apply copies the present fields of the update onto the account. The
// password is not applied here; callers hash it and set SHAPassword.
func (a *Account) Apply(in UpdateAccountInput) {
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Family != nil {
		a.Family = *in.Family
	}
	if in.FatherName != nil {
		a.FatherName = *in.FatherName
	}
	if in.NationalCode != nil {
		a.NationalCode = *in.NationalCode
	}
	if in.Gender != nil {
		a.Gender = *in.Gender
	}
	if in.Address != nil {
		a.Address = *in.Address
	}
}

// CreateAccountInput is the payload for registering an account.
type CreateAccountInput struct {
	Name         string `json:"Name"         validate:"required"`
	Family       string `json:"Family"       validate:"required"`
	FatherName   string `json:"FatherName"   validate:"required"`
	Phone        string `json:"Phone"        validate:"required,len=11,digits"`
	Password     string `json:"Password"     validate:"required,password"`
	NationalCode string `json:"NationalCode" validate:"required,len=10,digits"`
	Gender       Gender `json:"Gender"       validate:"required,oneof=1 2"`
	Address      string `json:"Address"      validate:"required"`
	TosAgreement bool   `json:"TosAgreement" validate:"required"`
}

// Normalize trims surrounding whitespace from every string field except
// Password, which is hashed exactly as given.
func (in *CreateAccountInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Family = strings.TrimSpace(in.Family)
	in.FatherName = strings.TrimSpace(in.FatherName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.NationalCode = strings.TrimSpace(in.NationalCode)
	in.Address = strings.TrimSpace(in.Address)
}

// Validate normalizes the input and reports every failing field.
func (in *CreateAccountInput) Validate() error {
	in.Normalize()
	return ValidateStruct(in)
}

// UpdateAccountInput is the payload for changing an account. Phone selects
// the account; nil fields are left unchanged.
type UpdateAccountInput struct {
	Phone        string  `json:"Phone"        validate:"required,len=11,digits"`
	Name         *string `json:"Name"         validate:"omitempty"`
	Family       *string `json:"Family"       validate:"omitempty"`
	FatherName   *string `json:"FatherName"   validate:"omitempty"`
	Password     *string `json:"Password"     validate:"omitempty,password"`
	NationalCode *string `json:"NationalCode" validate:"omitempty,len=10,digits"`
	Gender       *Gender `json:"Gender"       validate:"omitempty,oneof=1 2"`
	Address      *string `json:"Address"      validate:"omitempty"`
}

// Normalize trims string fields and treats empty values as absent. A
// present Password keeps its surrounding whitespace.
func (in *UpdateAccountInput) Normalize() {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = trimOptional(in.Name)
	in.Family = trimOptional(in.Family)
	in.FatherName = trimOptional(in.FatherName)
	if in.Password != nil && strings.TrimSpace(*in.Password) == "" {
		in.Password = nil
	}
	in.NationalCode = trimOptional(in.NationalCode)
	in.Address = trimOptional(in.Address)
	if in.Gender != nil && *in.Gender == GenderUnset {
		in.Gender = nil
	}
}

// HasChanges reports whether any mutable field is present.
func (in *UpdateAccountInput) HasChanges() bool {
	return in.Name != nil || in.Family != nil || in.FatherName != nil ||
		in.Password != nil || in.NationalCode != nil || in.Gender != nil ||
		in.Address != nil
}

// Validate normalizes the input, validates present fields and requires at
// least one change.
func (in *UpdateAccountInput) Validate() error {
	in.Normalize()
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if !in.HasChanges() {
		return NewValidationError("fields", "at least one field must be provided", ErrNoFieldsToUpdate)
	}
	return nil
}

// ValidatePhone checks a phone number used as a lookup key. Surrounding
// whitespace is rejected rather than trimmed, since callers use phone as is.
func ValidatePhone(phone string) error {
	switch {
	case strings.TrimSpace(phone) == "":
		return NewValidationError("Phone", "is required", nil)
	case len(phone) != PhoneLength || !digitsRegex.MatchString(phone):
		return NewValidationError("Phone", "must be exactly 11 digits", nil)
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
