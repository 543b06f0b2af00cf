package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service records and lists monetary transactions.
type Service interface {
	// RecordPayment appends a completed payment row inside the caller's
	// transaction.
	RecordPayment(ctx context.Context, tx *gorm.DB, input RecordPaymentInput) (*models.Transaction, error)
	ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.Transaction, error)
	RecentByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]models.Transaction, error)
}

type service struct {
	repo Repository
}

// RecordPaymentInput captures the immutable data a payment row requires.
type RecordPaymentInput struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
	DealerID  uuid.UUID
	Amount    decimal.Decimal
}

// NewService wires a transaction service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordPayment(ctx context.Context, tx *gorm.DB, input RecordPaymentInput) (*models.Transaction, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if input.DealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id is required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	now := time.Now().UTC()
	txn := &models.Transaction{
		RequestID:   input.RequestID,
		UserID:      input.UserID,
		DealerID:    input.DealerID,
		Amount:      input.Amount,
		Type:        enums.TransactionTypePayment,
		Status:      enums.TransactionStatusCompleted,
		CompletedAt: &now,
	}
	if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording transaction")
	}
	return txn, nil
}

func (s *service) ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.Transaction, error) {
	txns, err := s.repo.ListByDealer(ctx, dealerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transactions")
	}
	return txns, nil
}

func (s *service) RecentByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	txns, err := s.repo.RecentByDealer(ctx, dealerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing recent transactions")
	}
	return txns, nil
}
