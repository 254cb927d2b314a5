package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"time"

	"vaultflow/internal/presentation/cycle"
	id "vaultflow/pkg/domain"
)

// PresentationDefinition describes the claims requested from the wallet
// (Presentation Exchange v2 shape). Only ID takes part in correlation.
type PresentationDefinition struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Purpose          string            `json:"purpose,omitempty"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

type InputDescriptor struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Purpose     string      `json:"purpose,omitempty"`
	Constraints Constraints `json:"constraints"`
}

type Constraints struct {
	LimitDisclosure string  `json:"limit_disclosure,omitempty"`
	Fields          []Field `json:"fields"`
}

type Field struct {
	Path     []string       `json:"path"`
	Optional bool           `json:"optional,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
}

// PresentationSubmission is the wallet's declaration of which credentials
// satisfy which descriptor.
type PresentationSubmission struct {
	ID            string          `json:"id"`
	DefinitionID  string          `json:"definition_id"`
	DescriptorMap []DescriptorMap `json:"descriptor_map"`
}

type DescriptorMap struct {
	ID     string `json:"id"`
	Format string `json:"format,omitempty"`
	Path   string `json:"path"`
}

// VerifiablePresentation is the token returned by the wallet. Only the
// credentials are interpreted; the rest is forwarded untouched to the verifier.
type VerifiablePresentation struct {
	Context              []any        `json:"@context,omitempty"`
	Type                 []string     `json:"type,omitempty"`
	Holder               any          `json:"holder,omitempty"`
	VerifiableCredential []Credential `json:"verifiableCredential"`
	Proof                any          `json:"proof,omitempty"`
}

type Credential struct {
	Context           []any    `json:"@context,omitempty"`
	ID                string   `json:"id,omitempty"`
	Type              []string `json:"type,omitempty"`
	Issuer            any      `json:"issuer,omitempty"`
	IssuanceDate      string   `json:"issuanceDate,omitempty"`
	CredentialSubject Subject  `json:"credentialSubject"`
	Proof             any      `json:"proof,omitempty"`
}

// Subject is a credential subject. The wire form is either one object or an
// ordered array of objects; only the first element of an array is kept.
type Subject map[string]any

var errSubjectShape = errors.New("credentialSubject must be an object or an array of objects")

func (s *Subject) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*s = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []map[string]any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return errSubjectShape
		}
		if len(items) == 0 {
			*s = nil
			return nil
		}
		*s = items[0]
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var item map[string]any
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		*s = item
		return nil
	default:
		return errSubjectShape
	}
}

// Claims are the merged credential subjects exposed to the page.
type Claims map[string]any

// WalletResponse is what the wallet delivered to the callback URL.
// Either Error is set or both Token and Submission are.
type WalletResponse struct {
	Token            *VerifiablePresentation
	RawToken         json.RawMessage
	Submission       *PresentationSubmission
	RawSubmission    json.RawMessage
	Error            string
	ErrorDescription string
}

// CreateRequest opens a request cycle for one browser session.
type CreateRequest struct {
	DefinitionID   string
	CallbackURL    string
	DoVerification bool
}

// Cycle is the persisted request cycle of one browser session.
type Cycle struct {
	SessionID          id.SessionID
	DefinitionID       string
	CallbackURL        string
	DoVerification     bool
	State              cycle.State
	ExtensionInstalled bool
	Error              string
	ErrorDescription   string
	Data               Claims
	RequestURL         string
	Initiations        int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Apply moves the cycle through the state machine.
func (c *Cycle) Apply(event cycle.Event, now time.Time) error {
	next, err := cycle.Transition(c.State, event)
	if err != nil {
		return err
	}
	c.State = next
	c.UpdatedAt = now
	return nil
}

// Clone returns a copy that shares no claim map with c.
func (c *Cycle) Clone() *Cycle {
	cp := *c
	cp.Data = maps.Clone(c.Data)
	return &cp
}

// Fail records a failure reported by the wallet or the verifier.
func (c *Cycle) Fail(event cycle.Event, code, description string, now time.Time) error {
	if err := c.Apply(event, now); err != nil {
		return err
	}
	c.Error = code
	c.ErrorDescription = description
	return nil
}

// Snapshot is the state the page renders.
type Snapshot struct {
	SessionID            string `json:"session_id"`
	DefinitionID         string `json:"definition_id"`
	State                string `json:"state"`
	IsInitializing       bool   `json:"is_initializing"`
	IsExtensionInstalled bool   `json:"is_extension_installed"`
	IsLoading            bool   `json:"is_loading"`
	Error                string `json:"error,omitempty"`
	ErrorDescription     string `json:"error_description,omitempty"`
	Data                 Claims `json:"data,omitempty"`
	RequestURL           string `json:"request_url,omitempty"`
}

// Snapshot derives the exposed flags from the cycle state.
func (c *Cycle) Snapshot() Snapshot {
	return Snapshot{
		SessionID:            c.SessionID.String(),
		DefinitionID:         c.DefinitionID,
		State:                string(c.State),
		IsInitializing:       c.State == cycle.StateAwaitingWallet,
		IsExtensionInstalled: c.ExtensionInstalled,
		IsLoading:            c.State == cycle.StateAwaitingVerification,
		Error:                c.Error,
		ErrorDescription:     c.ErrorDescription,
		Data:                 c.Data,
		RequestURL:           c.RequestURL,
	}
}
