// Package domain provides type-safe identifiers so a session id cannot be
// passed where an issuance record id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "vaultflow/pkg/domain-errors"
)

type (
	// SessionID identifies one browser session's request cycle.
	SessionID uuid.UUID
	// IssuanceRecordID identifies a locally recorded issuance start.
	IssuanceRecordID uuid.UUID
)

func NewSessionID() SessionID               { return SessionID(uuid.New()) }
func NewIssuanceRecordID() IssuanceRecordID { return IssuanceRecordID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseIssuanceRecordID(s string) (IssuanceRecordID, error) {
	id, err := parseUUID(s, "issuance record ID")
	return IssuanceRecordID(id), err
}

func (id SessionID) String() string        { return uuid.UUID(id).String() }
func (id IssuanceRecordID) String() string { return uuid.UUID(id).String() }

func (id SessionID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id IssuanceRecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
