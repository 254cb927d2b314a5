package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vaultflow/internal/verifier/models"
	verifierservice "vaultflow/internal/verifier/service"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/httputil"
	"vaultflow/pkg/requestcontext"
)

// Service defines the verification operation used by the handler.
type Service interface {
	Check(ctx context.Context, in models.VerifyInput) error
}

// Handler exposes the verification collaborator to the pages.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verifier endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verifier/verify-vp", h.HandleVerifyVP)
}

// VerifyVPRequest is the presentation bundle posted by the callback page.
type VerifyVPRequest struct {
	VerifiablePresentation json.RawMessage `json:"verifiablePresentation"`
	PresentationDefinition json.RawMessage `json:"presentationDefinition"`
	PresentationSubmission json.RawMessage `json:"presentationSubmission"`
}

// StrictDecoding rejects unknown fields.
func (r *VerifyVPRequest) StrictDecoding() {}

func (r *VerifyVPRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if missing(r.VerifiablePresentation) {
		return dErrors.New(dErrors.CodeValidation, "verifiablePresentation is required")
	}
	if missing(r.PresentationDefinition) {
		return dErrors.New(dErrors.CodeValidation, "presentationDefinition is required")
	}
	if missing(r.PresentationSubmission) {
		return dErrors.New(dErrors.CodeValidation, "presentationSubmission is required")
	}
	return nil
}

func missing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

type VerifyVPResponse struct {
	IsCompliant bool `json:"isCompliant"`
}

// HandleVerifyVP handles POST /api/verifier/verify-vp requests.
func (h *Handler) HandleVerifyVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyVPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := h.service.Check(ctx, models.VerifyInput{
		VerifiablePresentation: req.VerifiablePresentation,
		PresentationDefinition: req.PresentationDefinition,
		PresentationSubmission: req.PresentationSubmission,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidVPToken) {
			h.logger.InfoContext(ctx, "verification failed",
				"request_id", requestID,
				"error", err,
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to verify presentation",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifyVPResponse{IsCompliant: true})
}

var _ Service = (*verifierservice.Service)(nil)
