package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/internal/transactions"
	"github.com/scraplink/dealer-backend/pkg/db"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
	"github.com/scraplink/dealer-backend/pkg/metrics"
	"github.com/scraplink/dealer-backend/pkg/requeststore"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// RequestStore is the slice of the remote request catalog this service needs.
type RequestStore interface {
	ListRequests(ctx context.Context, token string, status enums.RequestStatus) ([]requeststore.Request, error)
	GetRequest(ctx context.Context, token string, id uuid.UUID) (*requeststore.Request, error)
	UpdateRequestStatus(ctx context.Context, token string, id uuid.UUID, status enums.RequestStatus, note string) error
}

// Service coordinates the assignment lifecycle across the local ledger, the
// dealer profile aggregates, the transaction log and the remote request store.
type Service interface {
	Accept(ctx context.Context, input AcceptInput) (*models.Assignment, error)
	Complete(ctx context.Context, input CompleteInput) (*CompletionResult, error)
	ListMine(ctx context.Context, token string, dealerID uuid.UUID, status *enums.AssignmentStatus) ([]DealerRequest, error)
	ListAll(ctx context.Context) ([]models.Assignment, error)
	CountByStatus(ctx context.Context, dealerID uuid.UUID) (map[enums.AssignmentStatus]int64, error)
}

// AcceptInput identifies the claim being made. Token is the caller's bearer
// credential, reused for the advisory mirror push.
type AcceptInput struct {
	RequestID uuid.UUID
	DealerID  uuid.UUID
	Token     string
}

// CompleteInput carries the completion payload. UserID is the client-supplied
// fallback for the paying user; the remote request record wins when reachable.
type CompleteInput struct {
	RequestID    uuid.UUID
	DealerID     uuid.UUID
	Token        string
	ActualWeight *float64
	ActualPrice  *decimal.Decimal
	UserID       uuid.UUID
	Notes        *string
}

// CompletionResult is everything the tri-write produced.
type CompletionResult struct {
	Assignment  *models.Assignment    `json:"assignment"`
	Profile     *models.DealerProfile `json:"profile"`
	Transaction *models.Transaction   `json:"transaction"`
}

// DealerRequest pairs a local assignment with its remote request detail.
type DealerRequest struct {
	Assignment models.Assignment    `json:"assignment"`
	Request    requeststore.Request `json:"request"`
}

type service struct {
	client   *db.Client
	repo     Repository
	dealers  dealers.Service
	txns     transactions.Service
	catalog  RequestStore
	logg     *logger.Logger
	measures *metrics.ServiceMetrics
}

// NewService wires the assignment coordinator.
func NewService(
	client *db.Client,
	repo Repository,
	dealerSvc dealers.Service,
	txnSvc transactions.Service,
	catalog RequestStore,
	logg *logger.Logger,
	measures *metrics.ServiceMetrics,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if dealerSvc == nil {
		return nil, fmt.Errorf("dealers service required")
	}
	if txnSvc == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("request store client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client:   client,
		repo:     repo,
		dealers:  dealerSvc,
		txns:     txnSvc,
		catalog:  catalog,
		logg:     logg,
		measures: measures,
	}, nil
}

func (s *service) Accept(ctx context.Context, input AcceptInput) (*models.Assignment, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if input.DealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id is required")
	}

	now := time.Now().UTC()
	assignment := &models.Assignment{
		RequestID:  input.RequestID,
		DealerID:   input.DealerID,
		Status:     enums.AssignmentStatusAccepted,
		AssignedAt: now,
		AcceptedAt: &now,
	}

	// The insert is the claim. A unique violation means another dealer got
	// there first; nothing was read beforehand, so there is no race window.
	if err := s.repo.Create(ctx, assignment); err != nil {
		if db.IsUniqueViolation(err, "uq_assignments_request_id") {
			s.measures.IncClaimConflict()
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "request is already assigned")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating assignment")
	}

	s.mirrorStatus(ctx, input.Token, input.RequestID, input.DealerID, enums.RequestStatusAccepted)
	return assignment, nil
}

func (s *service) Complete(ctx context.Context, input CompleteInput) (*CompletionResult, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if input.DealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id is required")
	}

	assignment, err := s.repo.FindByRequestAndDealer(ctx, input.RequestID, input.DealerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found for this dealer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading assignment")
	}
	if assignment.Status == enums.AssignmentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment is already completed")
	}

	userID, err := s.resolveUserID(ctx, input)
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if input.ActualPrice != nil {
		amount = *input.ActualPrice
	}

	now := time.Now().UTC()
	result := &CompletionResult{}
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).MarkCompleted(ctx, assignment.ID, CompletionUpdate{
			CompletedAt:  now,
			ActualWeight: input.ActualWeight,
			ActualPrice:  input.ActualPrice,
			Notes:        input.Notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing assignment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "assignment is already completed")
		}

		profile, err := s.dealers.ApplyCompletion(ctx, tx, input.DealerID, amount)
		if err != nil {
			return err
		}

		txn, err := s.txns.RecordPayment(ctx, tx, transactions.RecordPaymentInput{
			RequestID: input.RequestID,
			UserID:    userID,
			DealerID:  input.DealerID,
			Amount:    amount,
		})
		if err != nil {
			return err
		}

		result.Profile = profile
		result.Transaction = txn
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completion transaction")
	}

	assignment.Status = enums.AssignmentStatusCompleted
	assignment.CompletedAt = &now
	assignment.ActualWeight = input.ActualWeight
	assignment.ActualPrice = input.ActualPrice
	assignment.Notes = input.Notes
	result.Assignment = assignment

	// Local state is durable at this point; the mirror push is advisory.
	s.mirrorStatus(ctx, input.Token, input.RequestID, input.DealerID, enums.RequestStatusCompleted)
	return result, nil
}

// resolveUserID prefers the request owner recorded in the remote catalog over
// whatever the client sent.
func (s *service) resolveUserID(ctx context.Context, input CompleteInput) (uuid.UUID, error) {
	remote, err := s.catalog.GetRequest(ctx, input.Token, input.RequestID)
	if err == nil && remote.UserID != uuid.Nil {
		return remote.UserID, nil
	}

	if input.UserID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation,
			"user id unavailable: remote request unreachable and no fallback supplied")
	}

	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"request_id": input.RequestID,
		"dealer_id":  input.DealerID,
	}), "falling back to client-supplied user id for transaction")
	return input.UserID, nil
}

func (s *service) ListMine(ctx context.Context, token string, dealerID uuid.UUID, status *enums.AssignmentStatus) ([]DealerRequest, error) {
	if dealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id is required")
	}

	rows, err := s.repo.ListByDealer(ctx, dealerID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing assignments")
	}

	out := make([]DealerRequest, 0, len(rows))
	var fetchErrs error
	for _, row := range rows {
		remote, err := s.catalog.GetRequest(ctx, token, row.RequestID)
		if err != nil {
			fetchErrs = multierr.Append(fetchErrs, fmt.Errorf("request %s: %w", row.RequestID, err))
			continue
		}
		out = append(out, DealerRequest{Assignment: row, Request: *remote})
	}

	if fetchErrs != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"dealer_id": dealerID,
			"skipped":   len(multierr.Errors(fetchErrs)),
			"errors":    fetchErrs.Error(),
		}), "some request details could not be fetched")
	}
	return out, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Assignment, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing assignments")
	}
	return rows, nil
}

func (s *service) CountByStatus(ctx context.Context, dealerID uuid.UUID) (map[enums.AssignmentStatus]int64, error) {
	counts, err := s.repo.CountByDealerAndStatus(ctx, dealerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting assignments")
	}
	return counts, nil
}

// mirrorStatus pushes the new status to the remote request store with the
// caller's own credential. One attempt; failures are logged and counted.
func (s *service) mirrorStatus(ctx context.Context, token string, requestID, dealerID uuid.UUID, status enums.RequestStatus) {
	note := fmt.Sprintf("updated by dealer %s", dealerID)
	if err := s.catalog.UpdateRequestStatus(ctx, token, requestID, status, note); err != nil {
		s.measures.IncMirrorPushFailure(status.String())
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"request_id": requestID,
			"dealer_id":  dealerID,
			"status":     status.String(),
			"error":      err.Error(),
		}), "request status mirror push failed")
	}
}
