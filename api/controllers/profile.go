package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/api/middleware"
	"github.com/scraplink/dealer-backend/api/responses"
	"github.com/scraplink/dealer-backend/api/validators"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
)

// GetProfile returns the caller's profile, creating a default one on first
// access.
func GetProfile(svc dealers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealers service unavailable"))
			return
		}

		dealerID := middleware.DealerIDFromContext(r.Context())
		if dealerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dealer context missing"))
			return
		}

		profile, err := svc.GetOrCreate(r.Context(), dealerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profilePayload{
			DealerID: dealerID,
			Role:     middleware.RoleFromContext(r.Context()),
			Profile:  profile,
		})
	}
}

type profilePayload struct {
	DealerID uuid.UUID             `json:"dealer_id"`
	Role     enums.Role            `json:"role"`
	Profile  *models.DealerProfile `json:"profile"`
}

type updateProfileBody struct {
	VehicleNumber *string   `json:"vehicle_number" validate:"omitempty,max=32"`
	ServiceAreas  *[]string `json:"service_areas" validate:"omitempty,dive,min=1"`
	IsActive      *bool     `json:"is_active"`
}

// UpdateProfile applies a partial update to the caller's profile.
func UpdateProfile(svc dealers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealers service unavailable"))
			return
		}

		dealerID := middleware.DealerIDFromContext(r.Context())
		if dealerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dealer context missing"))
			return
		}

		var body updateProfileBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), dealerID, dealers.UpdateProfileInput{
			VehicleNumber: body.VehicleNumber,
			ServiceAreas:  body.ServiceAreas,
			IsActive:      body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
