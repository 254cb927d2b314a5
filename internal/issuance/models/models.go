package models

import (
	"time"

	id "vaultflow/pkg/domain"
)

// Claim modes understood by the issuance API.
const ClaimModeTxCode = "TX_CODE"

// Outcome labels used for issuance metrics.
const (
	OutcomeStarted  = "started"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// StartInput is the validated request to start one issuance.
type StartInput struct {
	CredentialTypeID string
	HolderDID        string
	CredentialData   map[string]any
}

// Record is the local trace of an issuance started for a holder.
type Record struct {
	ID                 id.IssuanceRecordID
	IssuanceID         string
	CredentialTypeID   string
	HolderDID          string
	CredentialOfferURI string
	ExpiresIn          int
	CreatedAt          time.Time
}

// StartedEvent is published when the issuance API accepted a start request.
type StartedEvent struct {
	EventType          string    `json:"event_type"`
	RecordID           string    `json:"record_id"`
	IssuanceID         string    `json:"issuance_id"`
	CredentialTypeID   string    `json:"credential_type_id"`
	HolderDIDHash      string    `json:"holder_did_hash"`
	CredentialOfferURI string    `json:"credential_offer_uri"`
	ExpiresIn          int       `json:"expires_in"`
	OccurredAt         time.Time `json:"occurred_at"`
}

const EventTypeStarted = "issuance.started"
