// Package domain holds domain primitives shared across bounded contexts.
//
// IDs are distinct named types over uuid.UUID so a behandling ID can never be
// passed where a role ID is expected. Construct them with the Parse functions
// at trust boundaries; direct conversion from uuid.UUID bypasses validation and
// is reserved for stores and tests.
package domain

import (
	"github.com/google/uuid"

	dErrors "bidrag/pkg/domain-errors"
)

// CaseID identifies a behandling (one support case under processing).
type CaseID uuid.UUID

// RoleID identifies a role in a behandling: a subject child (søknadsbarn) or a
// party (bidragsmottaker, bidragspliktig). Household members that are not
// roles also use RoleID so custody periods share one subject type.
type RoleID uuid.UUID

// RecordID identifies a single date-ranged record.
type RecordID uuid.UUID

func NewCaseID() CaseID     { return CaseID(uuid.New()) }
func NewRoleID() RoleID     { return RoleID(uuid.New()) }
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// ParseCaseID parses a behandling ID from external input.
// Errors: CodeInvalidInput for empty, malformed, or nil UUIDs.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "behandling ID")
	return CaseID(u), err
}

// ParseRoleID parses a role ID from external input.
func ParseRoleID(s string) (RoleID, error) {
	u, err := parseUUID(s, "role ID")
	return RoleID(u), err
}

// ParseRecordID parses a record ID from external input.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record ID")
	return RecordID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func (id CaseID) String() string   { return uuid.UUID(id).String() }
func (id RoleID) String() string   { return uuid.UUID(id).String() }
func (id RecordID) String() string { return uuid.UUID(id).String() }

func (id CaseID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RoleID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the canonical UUID form in JSON and JSONB payloads.

func (id CaseID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *CaseID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id RoleID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *RoleID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id RecordID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *RecordID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
