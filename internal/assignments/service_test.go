package assignments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/internal/transactions"
	"github.com/scraplink/dealer-backend/pkg/db"
	"github.com/scraplink/dealer-backend/pkg/db/models"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
	"github.com/scraplink/dealer-backend/pkg/requeststore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAssignmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:assignments_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL UNIQUE,
  dealer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'assigned',
  assigned_at DATETIME,
  accepted_at DATETIME,
  completed_at DATETIME,
  actual_weight REAL,
  actual_price NUMERIC,
  notes TEXT
);`,
		`CREATE TABLE IF NOT EXISTS dealer_profiles (
  id TEXT PRIMARY KEY,
  dealer_id TEXT NOT NULL UNIQUE,
  vehicle_number TEXT,
  service_areas TEXT NOT NULL DEFAULT '[]',
  rating REAL NOT NULL DEFAULT 0,
  total_pickups INTEGER NOT NULL DEFAULT 0,
  total_earnings NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  dealer_id TEXT NOT NULL,
  amount NUMERIC NOT NULL DEFAULT 0,
  transaction_type TEXT NOT NULL DEFAULT 'payment',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  completed_at DATETIME
);`,
	} {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

type fakeCatalog struct {
	getFn    func(ctx context.Context, token string, id uuid.UUID) (*requeststore.Request, error)
	updateFn func(ctx context.Context, token string, id uuid.UUID, status enums.RequestStatus, note string) error
	listFn   func(ctx context.Context, token string, status enums.RequestStatus) ([]requeststore.Request, error)

	updates []mirrorCall
}

type mirrorCall struct {
	Token  string
	ID     uuid.UUID
	Status enums.RequestStatus
	Note   string
}

func (f *fakeCatalog) ListRequests(ctx context.Context, token string, status enums.RequestStatus) ([]requeststore.Request, error) {
	if f.listFn != nil {
		return f.listFn(ctx, token, status)
	}
	return nil, nil
}

func (f *fakeCatalog) GetRequest(ctx context.Context, token string, id uuid.UUID) (*requeststore.Request, error) {
	if f.getFn != nil {
		return f.getFn(ctx, token, id)
	}
	return &requeststore.Request{ID: id, UserID: uuid.New(), Status: enums.RequestStatusPending}, nil
}

func (f *fakeCatalog) UpdateRequestStatus(ctx context.Context, token string, id uuid.UUID, status enums.RequestStatus, note string) error {
	f.updates = append(f.updates, mirrorCall{Token: token, ID: id, Status: status, Note: note})
	if f.updateFn != nil {
		return f.updateFn(ctx, token, id, status, note)
	}
	return nil
}

type failingTxnService struct{}

func (failingTxnService) RecordPayment(ctx context.Context, tx *gorm.DB, input transactions.RecordPaymentInput) (*models.Transaction, error) {
	return nil, errors.New("transaction write refused")
}

func (failingTxnService) ListByDealer(ctx context.Context, dealerID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (failingTxnService) RecentByDealer(ctx context.Context, dealerID uuid.UUID, limit int) ([]models.Transaction, error) {
	return nil, nil
}

type coordinatorFixture struct {
	svc     Service
	conn    *gorm.DB
	catalog *fakeCatalog
	repo    Repository
}

func newCoordinator(t *testing.T, catalog *fakeCatalog, txnSvc transactions.Service) coordinatorFixture {
	t.Helper()

	conn := setupAssignmentsTestDB(t)
	client := db.NewWithConn(conn)
	repo := NewRepository(conn)

	dealerSvc, err := dealers.NewService(dealers.NewRepository(conn))
	require.NoError(t, err)

	if txnSvc == nil {
		txnSvc, err = transactions.NewService(transactions.NewRepository(conn))
		require.NoError(t, err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(client, repo, dealerSvc, txnSvc, catalog, logg, nil)
	require.NoError(t, err)

	return coordinatorFixture{svc: svc, conn: conn, catalog: catalog, repo: repo}
}

func TestAcceptClaimsRequest(t *testing.T) {
	catalog := &fakeCatalog{}
	fx := newCoordinator(t, catalog, nil)
	requestID, dealerID := uuid.New(), uuid.New()

	assignment, err := fx.svc.Accept(context.Background(), AcceptInput{
		RequestID: requestID,
		DealerID:  dealerID,
		Token:     "tok-1",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.AssignmentStatusAccepted, assignment.Status)
	require.NotNil(t, assignment.AcceptedAt)

	require.Len(t, catalog.updates, 1)
	push := catalog.updates[0]
	assert.Equal(t, "tok-1", push.Token)
	assert.Equal(t, requestID, push.ID)
	assert.Equal(t, enums.RequestStatusAccepted, push.Status)
	assert.Contains(t, push.Note, dealerID.String())
}

func TestAcceptSecondClaimConflicts(t *testing.T) {
	fx := newCoordinator(t, &fakeCatalog{}, nil)
	requestID := uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: uuid.New()})
	require.NoError(t, err)

	_, err = fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: uuid.New()})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	var count int64
	require.NoError(t, fx.conn.Model(&models.Assignment{}).Where("request_id = ?", requestID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAcceptSurvivesMirrorFailure(t *testing.T) {
	catalog := &fakeCatalog{
		updateFn: func(context.Context, string, uuid.UUID, enums.RequestStatus, string) error {
			return errors.New("upstream down")
		},
	}
	fx := newCoordinator(t, catalog, nil)

	assignment, err := fx.svc.Accept(context.Background(), AcceptInput{
		RequestID: uuid.New(),
		DealerID:  uuid.New(),
	})
	require.NoError(t, err)

	var stored models.Assignment
	require.NoError(t, fx.conn.First(&stored, "id = ?", assignment.ID).Error)
	assert.Equal(t, enums.AssignmentStatusAccepted, stored.Status)
}

func TestCompleteHappyPath(t *testing.T) {
	owner := uuid.New()
	catalog := &fakeCatalog{
		getFn: func(_ context.Context, _ string, id uuid.UUID) (*requeststore.Request, error) {
			return &requeststore.Request{ID: id, UserID: owner, Status: enums.RequestStatusAccepted}, nil
		},
	}
	fx := newCoordinator(t, catalog, nil)
	requestID, dealerID := uuid.New(), uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: dealerID, Token: "tok"})
	require.NoError(t, err)

	weight := 12.5
	price := decimal.NewFromFloat(300.25)
	notes := "metal scrap, ground floor"
	result, err := fx.svc.Complete(context.Background(), CompleteInput{
		RequestID:    requestID,
		DealerID:     dealerID,
		Token:        "tok",
		ActualWeight: &weight,
		ActualPrice:  &price,
		Notes:        &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.AssignmentStatusCompleted, result.Assignment.Status)
	require.NotNil(t, result.Assignment.CompletedAt)

	assert.Equal(t, 1, result.Profile.TotalPickups)
	assert.True(t, result.Profile.TotalEarnings.Equal(price))

	// user id must come from the remote record, not the (absent) payload value
	assert.Equal(t, owner, result.Transaction.UserID)
	assert.True(t, result.Transaction.Amount.Equal(price))
	assert.Equal(t, enums.TransactionStatusCompleted, result.Transaction.Status)

	// accept push then complete push
	require.Len(t, catalog.updates, 2)
	assert.Equal(t, enums.RequestStatusCompleted, catalog.updates[1].Status)
}

func TestCompleteFallsBackToClientUserID(t *testing.T) {
	fallback := uuid.New()
	catalog := &fakeCatalog{
		getFn: func(context.Context, string, uuid.UUID) (*requeststore.Request, error) {
			return nil, errors.New("catalog unreachable")
		},
	}
	fx := newCoordinator(t, catalog, nil)
	requestID, dealerID := uuid.New(), uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: dealerID})
	require.NoError(t, err)

	result, err := fx.svc.Complete(context.Background(), CompleteInput{
		RequestID: requestID,
		DealerID:  dealerID,
		UserID:    fallback,
	})
	require.NoError(t, err)
	assert.Equal(t, fallback, result.Transaction.UserID)
}

func TestCompleteWithoutAnyUserIDFails(t *testing.T) {
	catalog := &fakeCatalog{
		getFn: func(context.Context, string, uuid.UUID) (*requeststore.Request, error) {
			return nil, errors.New("catalog unreachable")
		},
	}
	fx := newCoordinator(t, catalog, nil)
	requestID, dealerID := uuid.New(), uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: dealerID})
	require.NoError(t, err)

	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: requestID, DealerID: dealerID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCompleteRepeatedRejected(t *testing.T) {
	fx := newCoordinator(t, &fakeCatalog{}, nil)
	requestID, dealerID := uuid.New(), uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: dealerID})
	require.NoError(t, err)

	price := decimal.NewFromInt(100)
	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: requestID, DealerID: dealerID, ActualPrice: &price})
	require.NoError(t, err)

	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: requestID, DealerID: dealerID, ActualPrice: &price})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// aggregates must reflect exactly one completion
	var profile models.DealerProfile
	require.NoError(t, fx.conn.First(&profile, "dealer_id = ?", dealerID).Error)
	assert.Equal(t, 1, profile.TotalPickups)
}

func TestCompleteOtherDealersClaimNotFound(t *testing.T) {
	fx := newCoordinator(t, &fakeCatalog{}, nil)
	requestID := uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: uuid.New()})
	require.NoError(t, err)

	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: requestID, DealerID: uuid.New()})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCompleteRollsBackOnTransactionFailure(t *testing.T) {
	fx := newCoordinator(t, &fakeCatalog{}, failingTxnService{})
	requestID, dealerID := uuid.New(), uuid.New()

	_, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: requestID, DealerID: dealerID})
	require.NoError(t, err)

	price := decimal.NewFromInt(500)
	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: requestID, DealerID: dealerID, ActualPrice: &price})
	require.Error(t, err)

	// no partial effects: assignment still accepted, no profile bump
	var stored models.Assignment
	require.NoError(t, fx.conn.First(&stored, "request_id = ?", requestID).Error)
	assert.Equal(t, enums.AssignmentStatusAccepted, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	var profiles int64
	require.NoError(t, fx.conn.Model(&models.DealerProfile{}).Where("dealer_id = ? AND total_pickups > 0", dealerID).Count(&profiles).Error)
	assert.Zero(t, profiles)
}

func TestListMineSkipsUnfetchableRows(t *testing.T) {
	var broken uuid.UUID
	catalog := &fakeCatalog{
		getFn: func(_ context.Context, _ string, id uuid.UUID) (*requeststore.Request, error) {
			if id == broken {
				return nil, errors.New("detail fetch failed")
			}
			return &requeststore.Request{ID: id, UserID: uuid.New(), Status: enums.RequestStatusAccepted}, nil
		},
	}
	fx := newCoordinator(t, catalog, nil)
	dealerID := uuid.New()

	first, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)
	second, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)
	broken = second.RequestID

	rows, err := fx.svc.ListMine(context.Background(), "tok", dealerID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.RequestID, rows[0].Assignment.RequestID)
}

func TestListMineStatusFilter(t *testing.T) {
	fx := newCoordinator(t, &fakeCatalog{}, nil)
	dealerID := uuid.New()

	completedReq, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)
	_, err = fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)

	price := decimal.NewFromInt(10)
	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: completedReq.RequestID, DealerID: dealerID, ActualPrice: &price})
	require.NoError(t, err)

	status := enums.AssignmentStatusCompleted
	rows, err := fx.svc.ListMine(context.Background(), "tok", dealerID, &status)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, completedReq.RequestID, rows[0].Assignment.RequestID)
}

func TestCountByStatus(t *testing.T) {
	fx := newCoordinator(t, &fakeCatalog{}, nil)
	dealerID := uuid.New()

	done, err := fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)
	_, err = fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)
	_, err = fx.svc.Accept(context.Background(), AcceptInput{RequestID: uuid.New(), DealerID: dealerID})
	require.NoError(t, err)

	price := decimal.NewFromInt(25)
	_, err = fx.svc.Complete(context.Background(), CompleteInput{RequestID: done.RequestID, DealerID: dealerID, ActualPrice: &price})
	require.NoError(t, err)

	counts, err := fx.svc.CountByStatus(context.Background(), dealerID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[enums.AssignmentStatusAccepted])
	assert.EqualValues(t, 1, counts[enums.AssignmentStatusCompleted])
}
