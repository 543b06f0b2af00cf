package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Transaction is the append-only monetary record created when an assignment
// completes. Commission rows share the table via the type column.
type Transaction struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequestID   uuid.UUID               `gorm:"column:request_id;type:uuid;not null" json:"request_id"`
	UserID      uuid.UUID               `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	DealerID    uuid.UUID               `gorm:"column:dealer_id;type:uuid;not null" json:"dealer_id"`
	Amount      decimal.Decimal         `gorm:"column:amount;type:numeric;not null" json:"amount"`
	Type        enums.TransactionType   `gorm:"column:transaction_type;not null;default:payment" json:"transaction_type"`
	Status      enums.TransactionStatus `gorm:"column:status;not null;default:pending" json:"status"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	CompletedAt *time.Time              `gorm:"column:completed_at" json:"completed_at"`
}
