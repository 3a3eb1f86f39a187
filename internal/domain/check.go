package domain

import (
	"sort"
	"strings"
)

// CheckIDLength is the length of a generated check id.
const CheckIDLength = TokenLength

// DefaultMaxChecks is the default per-account check quota.
const DefaultMaxChecks = 5

// Timeout bounds, in seconds.
const (
	MinCheckTimeout = 1
	MaxCheckTimeout = 5
)

// Protocols accepted for a check target.
var Protocols = []string{"http", "https"}

// Methods accepted for a check request.
var Methods = []string{"GET", "POST", "PUT", "DELETE"}

// Check is a monitoring-check definition owned by an account. Checks are
// stored only; nothing in this module executes them.
type Check struct {
	CheckID    string `json:"CheckID"`
	Phone      string `json:"Phone"`
	Protocol   string `json:"Protocol"`
	Method     string `json:"Method"`
	Website    string `json:"Website"`
	StatusCode []int  `json:"StatusCode"`
	Timeout    int    `json:"Timeout"`
}

// NewCheck builds a check from validated input.
func NewCheck(id, phone string, in CreateCheckInput) *Check {
	return &Check{
		CheckID:    id,
		Phone:      phone,
		Protocol:   in.Protocol,
		Method:     in.Method,
		Website:    in.Website,
		StatusCode: append([]int{}, in.StatusCode...),
		Timeout:    in.Timeout,
	}
}

// Target returns the URL the check points at.
func (c *Check) Target() string {
	return c.Protocol + "://" + c.Website
}

// Apply copies the present fields of the update onto the check.
func (c *Check) Apply(in UpdateCheckInput) {
	if in.Protocol != nil {
		c.Protocol = *in.Protocol
	}
	if in.Method != nil {
		c.Method = *in.Method
	}
	if in.Website != nil {
		c.Website = *in.Website
	}
	if len(in.StatusCode) > 0 {
		c.StatusCode = append([]int{}, in.StatusCode...)
	}
	if in.Timeout != nil {
		c.Timeout = *in.Timeout
	}
}

// CreateCheckInput is the payload for defining a check. The owner is taken
// from the session, never from the payload.
type CreateCheckInput struct {
	Protocol   string `json:"Protocol"   validate:"required,oneof=http https"`
	Method     string `json:"Method"     validate:"required,oneof=GET POST PUT DELETE"`
	Website    string `json:"Website"    validate:"required"`
	StatusCode []int  `json:"StatusCode" validate:"required,min=1,dive,min=100,max=599"`
	Timeout    int    `json:"Timeout"    validate:"required,min=1,max=5"`
}

// Normalize trims strings, canonicalizes case and collapses duplicate
// status codes.
func (in *CreateCheckInput) Normalize() {
	in.Protocol = strings.ToLower(strings.TrimSpace(in.Protocol))
	in.Method = strings.ToUpper(strings.TrimSpace(in.Method))
	in.Website = strings.TrimSpace(in.Website)
	in.StatusCode = dedupeCodes(in.StatusCode)
}

// Validate normalizes and validates the input.
func (in *CreateCheckInput) Validate() error {
	in.Normalize()
	return ValidateStruct(in)
}

// UpdateCheckInput changes a check selected by CheckID. Absent fields are
// left unchanged.
type UpdateCheckInput struct {
	CheckID    string  `json:"CheckID"    validate:"required,len=20,token"`
	Protocol   *string `json:"Protocol"   validate:"omitempty,oneof=http https"`
	Method     *string `json:"Method"     validate:"omitempty,oneof=GET POST PUT DELETE"`
	Website    *string `json:"Website"    validate:"omitempty"`
	StatusCode []int   `json:"StatusCode" validate:"omitempty,dive,min=100,max=599"`
	Timeout    *int    `json:"Timeout"    validate:"omitempty,min=1,max=5"`
}

// Normalize trims and canonicalizes present fields. Empty strings, an empty
// status list and a zero timeout count as absent.
func (in *UpdateCheckInput) Normalize() {
	in.CheckID = strings.TrimSpace(in.CheckID)
	if p := trimOptional(in.Protocol); p != nil {
		v := strings.ToLower(*p)
		in.Protocol = &v
	} else {
		in.Protocol = nil
	}
	if m := trimOptional(in.Method); m != nil {
		v := strings.ToUpper(*m)
		in.Method = &v
	} else {
		in.Method = nil
	}
	in.Website = trimOptional(in.Website)
	in.StatusCode = dedupeCodes(in.StatusCode)
	if in.Timeout != nil && *in.Timeout == 0 {
		in.Timeout = nil
	}
}

// HasChanges reports whether any mutable field is present.
func (in *UpdateCheckInput) HasChanges() bool {
	return in.Protocol != nil || in.Method != nil || in.Website != nil ||
		len(in.StatusCode) > 0 || in.Timeout != nil
}

// Validate normalizes the input, validates present fields and requires at
// least one change.
func (in *UpdateCheckInput) Validate() error {
	in.Normalize()
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if !in.HasChanges() {
		return NewValidationError("fields", "at least one field must be provided", ErrNoFieldsToUpdate)
	}
	return nil
}

// dedupeCodes returns the distinct codes in ascending order, or nil for an
// empty input.
func dedupeCodes(codes []int) []int {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(codes))
	out := make([]int, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
