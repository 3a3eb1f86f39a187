package api

import "github.com/phrazzld/pulse-api/internal/domain"

// Result messages for operations that return no record.
const (
	ResultAccountCreated = "account created"
	ResultAccountDeleted = "account deleted"
	ResultSessionDeleted = "session deleted"
	ResultCheckDeleted   = "check deleted"
)

// Query parameter names. They match the persisted field names.
const (
	ParamPhone     = "Phone"
	ParamSessionID = "SessionID"
	ParamCheckID   = "CheckID"
)

// Session header names; the second is accepted as an alias.
const (
	HeaderSession = "session"
	HeaderToken   = "token"
)

// CheckListResponse is the body of a check listing.
type CheckListResponse struct {
	Checks []*domain.Check `json:"Checks"`
}
