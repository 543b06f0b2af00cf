package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
	"github.com/scraplink/dealer-backend/pkg/metrics"
	"github.com/scraplink/dealer-backend/pkg/requeststore"
)

// Catalog lists pending pickup requests from the remote request store.
type Catalog interface {
	ListRequests(ctx context.Context, token string, status enums.RequestStatus) ([]requeststore.Request, error)
}

// ClaimedIndex exposes every request id the local ledger has a claim on.
type ClaimedIndex interface {
	ListRequestIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Service projects the "available to claim" view: remote pending requests
// minus everything already claimed locally, in remote order.
type Service interface {
	ListAvailable(ctx context.Context, token string) ([]requeststore.Request, error)
}

type service struct {
	catalog  Catalog
	claimed  ClaimedIndex
	logg     *logger.Logger
	measures *metrics.ServiceMetrics
}

// NewService wires the availability projector.
func NewService(catalog Catalog, claimed ClaimedIndex, logg *logger.Logger, measures *metrics.ServiceMetrics) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	if claimed == nil {
		return nil, fmt.Errorf("claimed index required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{catalog: catalog, claimed: claimed, logg: logg, measures: measures}, nil
}

func (s *service) ListAvailable(ctx context.Context, token string) ([]requeststore.Request, error) {
	pending, err := s.catalog.ListRequests(ctx, token, enums.RequestStatusPending)
	if err != nil {
		// Degraded view, not an error: callers get an empty worklist while
		// the catalog is unreachable.
		s.measures.IncAvailabilityDegraded()
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "request catalog unreachable, returning empty availability")
		return []requeststore.Request{}, nil
	}

	claimedIDs, err := s.claimed.ListRequestIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing claimed request ids")
	}

	claimed := make(map[uuid.UUID]struct{}, len(claimedIDs))
	for _, id := range claimedIDs {
		claimed[id] = struct{}{}
	}

	available := make([]requeststore.Request, 0, len(pending))
	for _, req := range pending {
		if _, taken := claimed[req.ID]; taken {
			continue
		}
		available = append(available, req)
	}
	return available, nil
}
