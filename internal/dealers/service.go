package dealers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/db"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	dbtypes "github.com/scraplink/dealer-backend/pkg/db/types"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines operations over dealer profiles.
type Service interface {
	// GetOrCreate returns the dealer's profile, creating a default one on
	// first access.
	GetOrCreate(ctx context.Context, dealerID uuid.UUID) (*models.DealerProfile, error)
	Update(ctx context.Context, dealerID uuid.UUID, input UpdateProfileInput) (*models.DealerProfile, error)
	// ApplyCompletion bumps the pickup counter and earnings aggregate inside
	// the caller's transaction.
	ApplyCompletion(ctx context.Context, tx *gorm.DB, dealerID uuid.UUID, earned decimal.Decimal) (*models.DealerProfile, error)
	ListAll(ctx context.Context) ([]models.DealerProfile, error)
}

type service struct {
	repo Repository
}

// UpdateProfileInput carries the mutable profile fields. Nil pointers leave
// the stored value untouched.
type UpdateProfileInput struct {
	VehicleNumber *string   `json:"vehicle_number"`
	ServiceAreas  *[]string `json:"service_areas"`
	IsActive      *bool     `json:"is_active"`
}

// NewService wires a dealer profile service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dealers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrCreate(ctx context.Context, dealerID uuid.UUID) (*models.DealerProfile, error) {
	if dealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id is required")
	}
	return s.getOrCreate(ctx, s.repo, dealerID)
}

func (s *service) getOrCreate(ctx context.Context, repo Repository, dealerID uuid.UUID) (*models.DealerProfile, error) {
	profile, err := repo.FindByDealerID(ctx, dealerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading dealer profile")
	}

	fresh := &models.DealerProfile{
		DealerID:      dealerID,
		ServiceAreas:  dbtypes.StringList{},
		TotalEarnings: decimal.Zero,
		IsActive:      true,
	}
	if err := repo.Create(ctx, fresh); err != nil {
		// A concurrent first access may have created the row already.
		if db.IsUniqueViolation(err, "uq_dealer_profiles_dealer_id") {
			existing, ferr := repo.FindByDealerID(ctx, dealerID)
			if ferr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, ferr, "loading dealer profile")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating dealer profile")
	}
	return fresh, nil
}

func (s *service) Update(ctx context.Context, dealerID uuid.UUID, input UpdateProfileInput) (*models.DealerProfile, error) {
	profile, err := s.GetOrCreate(ctx, dealerID)
	if err != nil {
		return nil, err
	}

	// Only the requested columns are written; a whole-row save here could
	// clobber aggregates bumped by a concurrent completion.
	fields := map[string]any{}
	if input.VehicleNumber != nil {
		fields["vehicle_number"] = *input.VehicleNumber
	}
	if input.ServiceAreas != nil {
		fields["service_areas"] = dbtypes.StringList(*input.ServiceAreas)
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}

	if err := s.repo.UpdateFields(ctx, profile.DealerID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving dealer profile")
	}
	updated, err := s.repo.FindByDealerID(ctx, profile.DealerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading dealer profile")
	}
	return updated, nil
}

func (s *service) ApplyCompletion(ctx context.Context, tx *gorm.DB, dealerID uuid.UUID, earned decimal.Decimal) (*models.DealerProfile, error) {
	if dealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id is required")
	}

	repo := s.repo.WithTx(tx)
	if _, err := s.getOrCreate(ctx, repo, dealerID); err != nil {
		return nil, err
	}

	// The bump runs as a single UPDATE against the stored row; incrementing a
	// value read earlier loses money when two completions for the same dealer
	// commit concurrently.
	affected, err := repo.IncrementCompletionTotals(ctx, dealerID, earned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating dealer aggregates")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dealer profile missing during completion")
	}

	profile, err := repo.FindByDealerID(ctx, dealerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading dealer profile")
	}
	return profile, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.DealerProfile, error) {
	profiles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing dealer profiles")
	}
	return profiles, nil
}
