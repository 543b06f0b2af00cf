package dealers

import (
	"context"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for dealer profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, profile *models.DealerProfile) error
	FindByDealerID(ctx context.Context, dealerID uuid.UUID) (*models.DealerProfile, error)
	// IncrementCompletionTotals bumps the pickup counter and earnings in a
	// single UPDATE so concurrent completions never overwrite each other.
	IncrementCompletionTotals(ctx context.Context, dealerID uuid.UUID, earned decimal.Decimal) (int64, error)
	UpdateFields(ctx context.Context, dealerID uuid.UUID, fields map[string]any) error
	ListAll(ctx context.Context) ([]models.DealerProfile, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dealer profile repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, profile *models.DealerProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) FindByDealerID(ctx context.Context, dealerID uuid.UUID) (*models.DealerProfile, error) {
	var profile models.DealerProfile
	if err := r.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) IncrementCompletionTotals(ctx context.Context, dealerID uuid.UUID, earned decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DealerProfile{}).
		Where("dealer_id = ?", dealerID).
		Updates(map[string]any{
			"total_pickups":  gorm.Expr("total_pickups + 1"),
			"total_earnings": gorm.Expr("total_earnings + CAST(? AS NUMERIC)", earned.String()),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateFields(ctx context.Context, dealerID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.DealerProfile{}).
		Where("dealer_id = ?", dealerID).
		Updates(fields).Error
}

func (r *repository) ListAll(ctx context.Context) ([]models.DealerProfile, error) {
	var profiles []models.DealerProfile
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
