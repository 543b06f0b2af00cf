package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for assignments. Rows are never deleted;
// the unique index on request_id is what arbitrates concurrent claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByRequestAndDealer(ctx context.Context, requestID, dealerID uuid.UUID) (*models.Assignment, error)
	// MarkCompleted transitions the row to completed unless it already is.
	// Returns the number of rows changed: zero means a lost race.
	MarkCompleted(ctx context.Context, id uuid.UUID, update CompletionUpdate) (int64, error)
	ListByDealer(ctx context.Context, dealerID uuid.UUID, status *enums.AssignmentStatus) ([]models.Assignment, error)
	ListAll(ctx context.Context) ([]models.Assignment, error)
	ListRequestIDs(ctx context.Context) ([]uuid.UUID, error)
	CountByDealerAndStatus(ctx context.Context, dealerID uuid.UUID) (map[enums.AssignmentStatus]int64, error)
}

// CompletionUpdate carries the fields written when an assignment completes.
type CompletionUpdate struct {
	CompletedAt  time.Time
	ActualWeight *float64
	ActualPrice  *decimal.Decimal
	Notes        *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an assignment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindByRequestAndDealer(ctx context.Context, requestID, dealerID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Where("request_id = ? AND dealer_id = ?", requestID, dealerID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, update CompletionUpdate) (int64, error) {
	values := map[string]any{
		"status":       enums.AssignmentStatusCompleted,
		"completed_at": update.CompletedAt,
	}
	if update.ActualWeight != nil {
		values["actual_weight"] = *update.ActualWeight
	}
	if update.ActualPrice != nil {
		values["actual_price"] = *update.ActualPrice
	}
	if update.Notes != nil {
		values["notes"] = *update.Notes
	}

	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status <> ?", id, enums.AssignmentStatusCompleted).
		Updates(values)
	return result.RowsAffected, result.Error
}

func (r *repository) ListByDealer(ctx context.Context, dealerID uuid.UUID, status *enums.AssignmentStatus) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Where("dealer_id = ?", dealerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var rows []models.Assignment
	if err := query.Order("assigned_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	var rows []models.Assignment
	if err := r.db.WithContext(ctx).
		Order("assigned_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListRequestIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Pluck("request_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CountByDealerAndStatus(ctx context.Context, dealerID uuid.UUID) (map[enums.AssignmentStatus]int64, error) {
	type statusCount struct {
		Status enums.AssignmentStatus
		Total  int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("status, COUNT(*) AS total").
		Where("dealer_id = ?", dealerID).
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[enums.AssignmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
