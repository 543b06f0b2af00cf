package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/api/middleware"
	"github.com/scraplink/dealer-backend/api/responses"
	"github.com/scraplink/dealer-backend/api/validators"
	"github.com/scraplink/dealer-backend/internal/assignments"
	"github.com/scraplink/dealer-backend/internal/availability"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// AvailableRequests lists pending requests not yet claimed by any dealer.
func AvailableRequests(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		requests, err := svc.ListAvailable(r.Context(), middleware.TokenFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}

// MyRequests lists the caller's assignments merged with remote request detail.
func MyRequests(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		dealerID := middleware.DealerIDFromContext(r.Context())
		if dealerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dealer context missing"))
			return
		}

		var statusFilter *enums.AssignmentStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseAssignmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			statusFilter = &status
		}

		rows, err := svc.ListMine(r.Context(), middleware.TokenFromContext(r.Context()), dealerID, statusFilter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AcceptRequest claims a pending request for the caller.
func AcceptRequest(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		dealerID := middleware.DealerIDFromContext(r.Context())
		if dealerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dealer context missing"))
			return
		}

		requestID, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Accept(r.Context(), assignments.AcceptInput{
			RequestID: requestID,
			DealerID:  dealerID,
			Token:     middleware.TokenFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

type completeRequestBody struct {
	ActualWeight *float64         `json:"actual_weight" validate:"omitempty,gte=0"`
	ActualPrice  *decimal.Decimal `json:"actual_price"`
	UserID       *uuid.UUID       `json:"user_id"`
	Notes        *string          `json:"notes" validate:"omitempty,max=1024"`
}

// CompleteRequest finishes the caller's claim on a request: one atomic write
// across the assignment, the profile aggregates and the transaction log.
func CompleteRequest(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		dealerID := middleware.DealerIDFromContext(r.Context())
		if dealerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dealer context missing"))
			return
		}

		requestID, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body completeRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assignments.CompleteInput{
			RequestID:    requestID,
			DealerID:     dealerID,
			Token:        middleware.TokenFromContext(r.Context()),
			ActualWeight: body.ActualWeight,
			ActualPrice:  body.ActualPrice,
			Notes:        body.Notes,
		}
		if body.UserID != nil {
			input.UserID = *body.UserID
		}

		result, err := svc.Complete(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func requestIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "requestId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id")
	}
	return id, nil
}
