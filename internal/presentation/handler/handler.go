package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vaultflow/internal/presentation/models"
	presentationservice "vaultflow/internal/presentation/service"
	"vaultflow/internal/presentation/wallet"
	id "vaultflow/pkg/domain"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/httputil"
	"vaultflow/pkg/requestcontext"
	str "vaultflow/pkg/string"
	"vaultflow/pkg/validation"
)

// Service defines the request cycle operations used by the handler.
type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (models.Snapshot, error)
	Initiate(ctx context.Context, sessionID id.SessionID, extensionInstalled bool) (models.Snapshot, error)
	Complete(ctx context.Context, sessionID id.SessionID, resp models.WalletResponse) (models.Snapshot, error)
	Snapshot(ctx context.Context, sessionID id.SessionID) (models.Snapshot, error)
}

// DefinitionLister lists the presentation definitions pages may request.
type DefinitionLister interface {
	List() []models.PresentationDefinition
}

// Handler wires request cycle endpoints to the presentation service.
type Handler struct {
	service     Service
	definitions DefinitionLister
	logger      *slog.Logger
}

func New(service Service, definitions DefinitionLister, logger *slog.Logger) *Handler {
	return &Handler{service: service, definitions: definitions, logger: logger}
}

// Register mounts request cycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/definitions", h.HandleListDefinitions)
	r.Post("/api/requests", h.HandleCreate)
	r.Get("/api/requests/{sessionID}", h.HandleSnapshot)
	r.Post("/api/requests/{sessionID}/initiate", h.HandleInitiate)
	r.Post("/api/requests/{sessionID}/callback", h.HandleCallback)
}

// CreateRequest is the request body for opening a request cycle.
type CreateRequest struct {
	DefinitionID   string `json:"definition_id" validate:"required,notblank,max=64"`
	CallbackURL    string `json:"callback_url" validate:"required,url,max=2048"`
	DoVerification bool   `json:"do_verification"`
}

func (r *CreateRequest) Normalize() {
	str.TrimStrings(&r.DefinitionID, &r.CallbackURL)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// InitiateRequest reports what the browser detected about the wallet.
type InitiateRequest struct {
	ExtensionInstalled *bool `json:"extension_installed"`
}

func (r *InitiateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ExtensionInstalled == nil {
		return dErrors.New(dErrors.CodeValidation, "extension_installed is required")
	}
	return nil
}

// CallbackRequest carries the wallet response forwarded by the callback page.
type CallbackRequest struct {
	VPToken                json.RawMessage `json:"vp_token"`
	PresentationSubmission json.RawMessage `json:"presentation_submission"`
	Error                  string          `json:"error"`
	ErrorDescription       string          `json:"error_description"`

	parsed models.WalletResponse
}

// StrictDecoding rejects unknown fields.
func (r *CallbackRequest) StrictDecoding() {}

func (r *CallbackRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Error) > 256 || len(r.ErrorDescription) > 1024 {
		return dErrors.New(dErrors.CodeValidation, "error fields are too long")
	}
	parsed, err := wallet.ParseResponse(r.VPToken, r.PresentationSubmission, r.Error, r.ErrorDescription)
	if err != nil {
		return err
	}
	r.parsed = parsed
	return nil
}

// Parsed returns the validated wallet response.
func (r *CallbackRequest) Parsed() models.WalletResponse {
	return r.parsed
}

type DefinitionsResponse struct {
	Definitions []models.PresentationDefinition `json:"definitions"`
}

// HandleListDefinitions handles GET /api/definitions requests.
func (h *Handler) HandleListDefinitions(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, DefinitionsResponse{Definitions: h.definitions.List()})
}

// HandleCreate handles POST /api/requests requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snap, err := h.service.Create(ctx, models.CreateRequest{
		DefinitionID:   req.DefinitionID,
		CallbackURL:    req.CallbackURL,
		DoVerification: req.DoVerification,
	})
	if err != nil {
		h.logError(ctx, "failed to create request cycle", requestID, "", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, snap)
}

// HandleSnapshot handles GET /api/requests/{sessionID} requests.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Snapshot(ctx, sessionID)
	if err != nil {
		h.logError(ctx, "failed to load request cycle", requestID, sessionID.String(), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// HandleInitiate handles POST /api/requests/{sessionID}/initiate requests.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[InitiateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snap, err := h.service.Initiate(ctx, sessionID, *req.ExtensionInstalled)
	if err != nil {
		h.logError(ctx, "failed to initiate wallet request", requestID, sessionID.String(), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// HandleCallback handles POST /api/requests/{sessionID}/callback requests.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CallbackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snap, err := h.service.Complete(ctx, sessionID, req.Parsed())
	if err != nil {
		h.logError(ctx, "failed to complete wallet request", requestID, sessionID.String(), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SessionID{}, false
	}
	return sessionID, true
}

// logError logs client mistakes at warn and everything else at error.
func (h *Handler) logError(ctx context.Context, msg, requestID, sessionID string, err error) {
	attrs := []any{"request_id", requestID, "error", err}
	if sessionID != "" {
		attrs = append(attrs, "session_id", sessionID)
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
}

var _ Service = (*presentationservice.Service)(nil)
