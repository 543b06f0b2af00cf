package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/scraplink/dealer-backend/pkg/db/types"
	"github.com/shopspring/decimal"
)

// DealerProfile holds the mutable per-dealer aggregates. Exactly one row
// exists per dealer identity; it is created lazily on first profile access.
type DealerProfile struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DealerID      uuid.UUID          `gorm:"column:dealer_id;type:uuid;not null;unique" json:"dealer_id"`
	VehicleNumber *string            `gorm:"column:vehicle_number" json:"vehicle_number"`
	ServiceAreas  dbtypes.StringList `gorm:"column:service_areas;type:text" json:"service_areas"`
	Rating        float64            `gorm:"column:rating;not null;default:0" json:"rating"`
	TotalPickups  int                `gorm:"column:total_pickups;not null;default:0" json:"total_pickups"`
	TotalEarnings decimal.Decimal    `gorm:"column:total_earnings;type:numeric;not null;default:0" json:"total_earnings"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
