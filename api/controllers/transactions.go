package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/api/middleware"
	"github.com/scraplink/dealer-backend/api/responses"
	"github.com/scraplink/dealer-backend/internal/transactions"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
)

// DealerTransactions lists the caller's transactions, newest first.
func DealerTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		dealerID := middleware.DealerIDFromContext(r.Context())
		if dealerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "dealer context missing"))
			return
		}

		txns, err := svc.ListByDealer(r.Context(), dealerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txns)
	}
}
