// Package domain defines typed identifiers shared across modules.
//
// Every entity ID is a distinct UUID-backed type so the compiler rejects
// cross-entity assignment (a GrantID can never be passed where a RequestID is
// expected). Parse helpers enforce the invariant that IDs are valid, non-nil
// UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "meshgov/pkg/domain-errors"
)

type (
	// UserID identifies a platform actor (consumer, owner, or administrator).
	UserID uuid.UUID
	// ProductID identifies a data product in the catalog.
	ProductID uuid.UUID
	// RequestID identifies an access request.
	RequestID uuid.UUID
	// GrantID identifies an access grant.
	GrantID uuid.UUID
	// KeyID identifies an API key.
	KeyID uuid.UUID
	// RuleID identifies a compliance rule.
	RuleID uuid.UUID
	// EntryID identifies an audit log entry.
	EntryID uuid.UUID
)

func parse(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parse("user", s)
	return UserID(u), err
}

// ParseProductID validates and returns a ProductID.
func ParseProductID(s string) (ProductID, error) {
	u, err := parse("product", s)
	return ProductID(u), err
}

// ParseRequestID validates and returns a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parse("request", s)
	return RequestID(u), err
}

// ParseGrantID validates and returns a GrantID.
func ParseGrantID(s string) (GrantID, error) {
	u, err := parse("grant", s)
	return GrantID(u), err
}

// ParseKeyID validates and returns a KeyID.
func ParseKeyID(s string) (KeyID, error) {
	u, err := parse("key", s)
	return KeyID(u), err
}

// ParseRuleID validates and returns a RuleID.
func ParseRuleID(s string) (RuleID, error) {
	u, err := parse("rule", s)
	return RuleID(u), err
}

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ProductID) String() string { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id GrantID) String() string   { return uuid.UUID(id).String() }
func (id KeyID) String() string     { return uuid.UUID(id).String() }
func (id RuleID) String() string    { return uuid.UUID(id).String() }
func (id EntryID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id GrantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id KeyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep typed IDs JSON-friendly as plain UUID strings.
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ProductID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id GrantID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id KeyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id RuleID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func unmarshalText(kind string, data []byte) (uuid.UUID, error) {
	return parse(kind, string(data))
}

func (id *UserID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("user", data)
	*id = UserID(u)
	return err
}

func (id *ProductID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("product", data)
	*id = ProductID(u)
	return err
}

func (id *RequestID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("request", data)
	*id = RequestID(u)
	return err
}

func (id *GrantID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("grant", data)
	*id = GrantID(u)
	return err
}

func (id *KeyID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("key", data)
	*id = KeyID(u)
	return err
}

func (id *RuleID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("rule", data)
	*id = RuleID(u)
	return err
}

func (id *EntryID) UnmarshalText(data []byte) error {
	u, err := unmarshalText("entry", data)
	*id = EntryID(u)
	return err
}
