package transactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for the append-only transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.Transaction, error)
	RecentByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) RecentByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
