package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/platform/httputil"
	"bidrag/pkg/requestcontext"
)

// Service defines the behandling operations exposed over HTTP.
type Service interface {
	SetCessationDate(ctx context.Context, caseID id.CaseID, childID id.RoleID, date *time.Time) (*models.Case, error)
	GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error)
}

// Handler wires behandling endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts behandling endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/behandlinger/{caseID}", h.HandleGetCase)
	r.Put("/behandlinger/{caseID}/barn/{childID}/opphorsdato", h.HandleSetCessationDate)
}

// HandleSetCessationDate handles
// PUT /behandlinger/{caseID}/barn/{childID}/opphorsdato.
func (h *Handler) HandleSetCessationDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	childID, err := id.ParseRoleID(chi.URLParam(r, "childID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetCessationDateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.SetCessationDate(ctx, caseID, childID, req.ParsedDate())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			h.logger.ErrorContext(ctx, "failed to set opphørsdato",
				"request_id", requestID,
				"behandling_id", caseID,
				"child_id", childID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleGetCase handles GET /behandlinger/{caseID}.
func (h *Handler) HandleGetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.GetCase(ctx, caseID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to load behandling",
				"request_id", requestcontext.RequestID(ctx),
				"behandling_id", caseID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}
