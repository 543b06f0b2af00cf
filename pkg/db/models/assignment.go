package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Assignment binds a pickup request to the dealer who claimed it. The unique
// constraint on request_id is what makes a claim atomic: a second insert for
// the same request fails at the storage layer. Rows are never deleted.
type Assignment struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequestID    uuid.UUID              `gorm:"column:request_id;type:uuid;not null;unique" json:"request_id"`
	DealerID     uuid.UUID              `gorm:"column:dealer_id;type:uuid;not null" json:"dealer_id"`
	Status       enums.AssignmentStatus `gorm:"column:status;not null;default:assigned" json:"status"`
	AssignedAt   time.Time              `gorm:"column:assigned_at;autoCreateTime" json:"assigned_at"`
	AcceptedAt   *time.Time             `gorm:"column:accepted_at" json:"accepted_at"`
	CompletedAt  *time.Time             `gorm:"column:completed_at" json:"completed_at"`
	ActualWeight *float64               `gorm:"column:actual_weight" json:"actual_weight"`
	ActualPrice  *decimal.Decimal       `gorm:"column:actual_price;type:numeric" json:"actual_price"`
	Notes        *string                `gorm:"column:notes" json:"notes"`
}
