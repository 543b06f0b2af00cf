package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/internal/assignments"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
	"github.com/scraplink/dealer-backend/internal/transactions"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeAssignments struct {
	counts map[enums.AssignmentStatus]int64
}

func (f fakeAssignments) Accept(ctx context.Context, input assignments.AcceptInput) (*models.Assignment, error) {
	return nil, nil
}

func (f fakeAssignments) Complete(ctx context.Context, input assignments.CompleteInput) (*assignments.CompletionResult, error) {
	return nil, nil
}

func (f fakeAssignments) ListMine(ctx context.Context, token string, dealerID uuid.UUID, status *enums.AssignmentStatus) ([]assignments.DealerRequest, error) {
	return nil, nil
}

func (f fakeAssignments) ListAll(ctx context.Context) ([]models.Assignment, error) {
	return nil, nil
}

func (f fakeAssignments) CountByStatus(ctx context.Context, dealerID uuid.UUID) (map[enums.AssignmentStatus]int64, error) {
	return f.counts, nil
}

type fakeDealers struct {
	profile *models.DealerProfile
}

func (f fakeDealers) GetOrCreate(ctx context.Context, dealerID uuid.UUID) (*models.DealerProfile, error) {
	return f.profile, nil
}

func (f fakeDealers) Update(ctx context.Context, dealerID uuid.UUID, input dealers.UpdateProfileInput) (*models.DealerProfile, error) {
	return f.profile, nil
}

func (f fakeDealers) ApplyCompletion(ctx context.Context, tx *gorm.DB, dealerID uuid.UUID, earned decimal.Decimal) (*models.DealerProfile, error) {
	return f.profile, nil
}

func (f fakeDealers) ListAll(ctx context.Context) ([]models.DealerProfile, error) {
	return nil, nil
}

type fakeTransactions struct {
	recent []models.Transaction
}

func (f fakeTransactions) RecordPayment(ctx context.Context, tx *gorm.DB, input transactions.RecordPaymentInput) (*models.Transaction, error) {
	return nil, nil
}

func (f fakeTransactions) ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.Transaction, error) {
	return f.recent, nil
}

func (f fakeTransactions) RecentByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]models.Transaction, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func TestSummarize(t *testing.T) {
	dealerID := uuid.New()
	profile := &models.DealerProfile{
		ID:            uuid.New(),
		DealerID:      dealerID,
		TotalPickups:  7,
		TotalEarnings: decimal.NewFromInt(1200),
		Rating:        4.5,
	}
	recent := []models.Transaction{
		{ID: uuid.New(), DealerID: dealerID, Amount: decimal.NewFromInt(100), CreatedAt: time.Now()},
	}
	counts := map[enums.AssignmentStatus]int64{
		enums.AssignmentStatusAccepted:  2,
		enums.AssignmentStatusCompleted: 5,
	}

	svc, err := NewService(fakeAssignments{counts: counts}, fakeDealers{profile: profile}, fakeTransactions{recent: recent})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	summary, err := svc.Summarize(context.Background(), dealerID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if summary.Profile.TotalPickups != 7 {
		t.Fatalf("unexpected profile %+v", summary.Profile)
	}
	if summary.Assignments.Total != 7 || summary.Assignments.Accepted != 2 || summary.Assignments.Completed != 5 {
		t.Fatalf("unexpected counts %+v", summary.Assignments)
	}
	if len(summary.RecentTransactions) != 1 {
		t.Fatalf("unexpected recent transactions %+v", summary.RecentTransactions)
	}
}
