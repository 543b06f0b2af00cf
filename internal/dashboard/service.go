package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/internal/assignments"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/internal/transactions"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
)

const recentTransactionLimit = 10

// Summary is the per-dealer dashboard payload. Assembled entirely from local
// state; no remote calls.
type Summary struct {
	Profile            *models.DealerProfile `json:"profile"`
	Assignments        AssignmentCounts      `json:"assignments"`
	RecentTransactions []models.Transaction  `json:"recent_transactions"`
}

// AssignmentCounts breaks a dealer's assignments down by lifecycle status.
type AssignmentCounts struct {
	Total      int64 `json:"total"`
	Assigned   int64 `json:"assigned"`
	Accepted   int64 `json:"accepted"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
}

// Service assembles the dealer dashboard.
type Service interface {
	Summarize(ctx context.Context, dealerID uuid.UUID) (*Summary, error)
}

type service struct {
	assignments assignments.Service
	dealers     dealers.Service
	txns        transactions.Service
}

// NewService wires the dashboard aggregator.
func NewService(assignmentSvc assignments.Service, dealerSvc dealers.Service, txnSvc transactions.Service) (Service, error) {
	if assignmentSvc == nil {
		return nil, fmt.Errorf("assignments service required")
	}
	if dealerSvc == nil {
		return nil, fmt.Errorf("dealers service required")
	}
	if txnSvc == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	return &service{assignments: assignmentSvc, dealers: dealerSvc, txns: txnSvc}, nil
}

func (s *service) Summarize(ctx context.Context, dealerID uuid.UUID) (*Summary, error) {
	profile, err := s.dealers.GetOrCreate(ctx, dealerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.assignments.CountByStatus(ctx, dealerID)
	if err != nil {
		return nil, err
	}

	recent, err := s.txns.RecentByDealer(ctx, dealerID, recentTransactionLimit)
	if err != nil {
		return nil, err
	}

	breakdown := AssignmentCounts{
		Assigned:   counts[enums.AssignmentStatusAssigned],
		Accepted:   counts[enums.AssignmentStatusAccepted],
		InProgress: counts[enums.AssignmentStatusInProgress],
		Completed:  counts[enums.AssignmentStatusCompleted],
	}
	breakdown.Total = breakdown.Assigned + breakdown.Accepted + breakdown.InProgress + breakdown.Completed

	return &Summary{
		Profile:            profile,
		Assignments:        breakdown,
		RecentTransactions: recent,
	}, nil
}
