package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vaultflow/contracts/issuance"
	"vaultflow/internal/issuance/models"
	issuanceservice "vaultflow/internal/issuance/service"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/httputil"
	limits "vaultflow/pkg/platform/validation"
	"vaultflow/pkg/requestcontext"
	str "vaultflow/pkg/string"
	"vaultflow/pkg/validation"
)

// Service defines the issuance operations used by the handler.
type Service interface {
	Start(ctx context.Context, in models.StartInput) (*issuance.Offer, error)
	ListByHolder(ctx context.Context, holderDID string, limit int) ([]models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts issuance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/credentials/issuance-start", h.HandleStart)
	r.Get("/api/credentials/issuances", h.HandleList)
}

// StartRequest is the issuance start body posted by the pages.
type StartRequest struct {
	CredentialTypeID string          `json:"credentialTypeId" validate:"required,notblank,max=128"`
	HolderDID        string          `json:"holderDid" validate:"required,did,max=512"`
	CredentialData   json.RawMessage `json:"credentialData"`

	data map[string]any
}

func (r *StartRequest) Normalize() {
	str.TrimStrings(&r.CredentialTypeID, &r.HolderDID)
}

func (r *StartRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(r.CredentialData)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return dErrors.New(dErrors.CodeValidation, "credential_data must be an object")
	}
	var data map[string]any
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return dErrors.New(dErrors.CodeValidation, "credential_data must be an object")
	}
	if err := limits.CheckCount("credential_data fields", len(data), limits.MaxCredentialDataFields); err != nil {
		return err
	}
	r.data = data
	return nil
}

// HandleStart handles POST /api/credentials/issuance-start requests.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[StartRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	offer, err := h.service.Start(ctx, models.StartInput{
		CredentialTypeID: req.CredentialTypeID,
		HolderDID:        req.HolderDID,
		CredentialData:   req.data,
	})
	if err != nil {
		h.logError(ctx, requestID, "failed to start issuance", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, offer)
}

type IssuanceResponse struct {
	IssuanceID         string    `json:"issuanceId"`
	CredentialTypeID   string    `json:"credentialTypeId"`
	CredentialOfferURI string    `json:"credentialOfferUri"`
	ExpiresIn          int       `json:"expiresIn"`
	CreatedAt          time.Time `json:"createdAt"`
}

type ListResponse struct {
	Issuances []IssuanceResponse `json:"issuances"`
}

// HandleList handles GET /api/credentials/issuances?holderDid= requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	holderDID := r.URL.Query().Get("holderDid")
	if err := limits.CheckStringLength("holder_did", holderDID, limits.MaxDIDLength); err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.service.ListByHolder(ctx, holderDID, limit)
	if err != nil {
		h.logError(ctx, requestID, "failed to list issuances", err)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Issuances: make([]IssuanceResponse, 0, len(records))}
	for _, rec := range records {
		resp.Issuances = append(resp.Issuances, IssuanceResponse{
			IssuanceID:         rec.IssuanceID,
			CredentialTypeID:   rec.CredentialTypeID,
			CredentialOfferURI: rec.CredentialOfferURI,
			ExpiresIn:          rec.ExpiresIn,
			CreatedAt:          rec.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logError(ctx context.Context, requestID, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	default:
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	}
}

var _ Service = (*issuanceservice.Service)(nil)
