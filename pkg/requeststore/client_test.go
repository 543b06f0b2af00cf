package requeststore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/config"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.RequestStoreConfig{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestListRequestsPassesStatusAndToken(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	var gotQuery, gotAuth string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("status")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprintf(w, `{"requests":[{"id":%q,"user_id":%q,"status":"pending"},{"id":%q,"user_id":%q,"status":"pending"}]}`,
			first, uuid.New(), second, uuid.New())
	}))

	requests, err := client.ListRequests(context.Background(), "tok-9", enums.RequestStatusPending)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].ID != first || requests[1].ID != second {
		t.Fatal("remote ordering not preserved")
	}
	if gotQuery != "pending" {
		t.Fatalf("unexpected status query %q", gotQuery)
	}
	if gotAuth != "Bearer tok-9" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestListRequestsUpstreamErrorIsDependency(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "catalog down", http.StatusBadGateway)
	}))

	_, err := client.ListRequests(context.Background(), "tok", enums.RequestStatusPending)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetRequestDecodesRecord(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/requests/"+id.String() {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprintf(w, `{"id":%q,"user_id":%q,"status":"accepted","scrap_type":"metal","pickup_address":"12 Main St"}`, id, owner)
	}))

	record, err := client.GetRequest(context.Background(), "tok", id)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if record.UserID != owner || record.ScrapType != "metal" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.GetRequest(context.Background(), "tok", uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRequestStatusSendsBody(t *testing.T) {
	id := uuid.New()
	var gotMethod, gotPath string
	var gotBody map[string]string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.UpdateRequestStatus(context.Background(), "tok", id, enums.RequestStatusCompleted, "updated by dealer x")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("unexpected method %q", gotMethod)
	}
	if gotPath != "/api/users/requests/"+id.String()+"/status" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["status"] != "completed" || gotBody["notes"] != "updated by dealer x" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestUpdateRequestStatusRejectsInvalidStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream should not be called")
	}))

	err := client.UpdateRequestStatus(context.Background(), "tok", uuid.New(), enums.RequestStatus("bogus"), "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
