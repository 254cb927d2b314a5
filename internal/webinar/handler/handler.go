package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vaultflow/contracts/issuance"
	"vaultflow/internal/webinar/models"
	webinarservice "vaultflow/internal/webinar/service"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/httputil"
	limits "vaultflow/pkg/platform/validation"
	"vaultflow/pkg/requestcontext"
)

// Service defines the webinar operations used by the handler.
type Service interface {
	List() []models.Webinar
	Prefill(claims map[string]any) models.RegistrationForm
	Register(ctx context.Context, in models.Registration) (*issuance.Offer, error)
	IssueAttendance(ctx context.Context, in models.Attendance) (*issuance.Offer, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts webinar endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/webinars", h.HandleList)
	r.Post("/api/webinars/profile-prefill", h.HandlePrefill)
	r.Post("/api/webinars/registrations", h.HandleRegister)
	r.Post("/api/webinars/attendance-certificates", h.HandleAttendance)
}

type ListResponse struct {
	Webinars []models.Webinar `json:"webinars"`
}

// HandleList handles GET /api/webinars requests.
func (h *Handler) HandleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Webinars: h.service.List()})
}

// PrefillRequest carries the claims of a shared user-profile credential.
type PrefillRequest struct {
	Claims json.RawMessage `json:"claims"`

	claims map[string]any
}

func (r *PrefillRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	trimmed := bytes.TrimSpace(r.Claims)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return dErrors.New(dErrors.CodeValidation, "claims must be an object")
	}
	if err := json.Unmarshal(trimmed, &r.claims); err != nil {
		return dErrors.New(dErrors.CodeValidation, "claims must be an object")
	}
	return nil
}

// HandlePrefill handles POST /api/webinars/profile-prefill requests.
func (h *Handler) HandlePrefill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PrefillRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Prefill(req.claims))
}

// RegistrationRequest is the registration form posted by the page.
type RegistrationRequest struct {
	HolderDID   string `json:"holderDid"`
	WebinarID   int    `json:"webinarId"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	DOB         string `json:"dob"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	Postcode    string `json:"postcode"`
	City        string `json:"city"`
	Country     string `json:"country"`
	PassType    string `json:"passType"`
	PassAmount  string `json:"passAmount"`
}

// StrictDecoding rejects unknown fields.
func (r *RegistrationRequest) StrictDecoding() {}

func (r *RegistrationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := limits.CheckStringLength("holder_did", r.HolderDID, limits.MaxDIDLength); err != nil {
		return err
	}
	return checkFields(map[string]string{
		"email":        r.Email,
		"name":         r.Name,
		"phone_number": r.PhoneNumber,
		"dob":          r.DOB,
		"gender":       r.Gender,
		"address":      r.Address,
		"postcode":     r.Postcode,
		"city":         r.City,
		"country":      r.Country,
		"pass_type":    r.PassType,
		"pass_amount":  r.PassAmount,
	})
}

// HandleRegister handles POST /api/webinars/registrations requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegistrationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	offer, err := h.service.Register(ctx, models.Registration{
		HolderDID: req.HolderDID,
		WebinarID: req.WebinarID,
		Form: models.RegistrationForm{
			Email:       req.Email,
			Name:        req.Name,
			PhoneNumber: req.PhoneNumber,
			DOB:         req.DOB,
			Gender:      req.Gender,
			Address:     req.Address,
			Postcode:    req.Postcode,
			City:        req.City,
			Country:     req.Country,
		},
		PassType:   req.PassType,
		PassAmount: req.PassAmount,
	})
	if err != nil {
		h.logError(ctx, requestID, "failed to register for webinar", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, offer)
}

// AttendanceRequest carries the claims of the visitor's registration
// credential, named as in that credential.
type AttendanceRequest struct {
	HolderDID    string `json:"holderDid"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	WebinarTitle string `json:"webinartitle"`
	WebinarDate  string `json:"webinardate"`
	Description  string `json:"desc"`
}

func (r *AttendanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := limits.CheckStringLength("holder_did", r.HolderDID, limits.MaxDIDLength); err != nil {
		return err
	}
	return checkFields(map[string]string{
		"email":        r.Email,
		"name":         r.Name,
		"webinartitle": r.WebinarTitle,
		"webinardate":  r.WebinarDate,
	})
}

// HandleAttendance handles POST /api/webinars/attendance-certificates requests.
func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AttendanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	offer, err := h.service.IssueAttendance(ctx, models.Attendance{
		HolderDID:    req.HolderDID,
		Email:        req.Email,
		Name:         req.Name,
		WebinarTitle: req.WebinarTitle,
		WebinarDate:  req.WebinarDate,
		Description:  req.Description,
	})
	if err != nil {
		h.logError(ctx, requestID, "failed to issue attendance certificate", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, offer)
}

func checkFields(fields map[string]string) error {
	for name, value := range fields {
		if err := limits.CheckStringLength(name, value, limits.MaxFormFieldLength); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) logError(ctx context.Context, requestID, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	default:
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	}
}

var _ Service = (*webinarservice.Service)(nil)
