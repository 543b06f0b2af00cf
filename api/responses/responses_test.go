package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["hello"] != "world" {
		t.Fatalf("unexpected payload %v", envelope)
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "bad input"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{pkgerrors.New(pkgerrors.CodeUnauthorized, "no token"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{pkgerrors.New(pkgerrors.CodeForbidden, "dealer only"), http.StatusForbidden, "FORBIDDEN"},
		{pkgerrors.New(pkgerrors.CodeNotFound, "missing"), http.StatusNotFound, "NOT_FOUND"},
		{pkgerrors.New(pkgerrors.CodeConflict, "already assigned"), http.StatusConflict, "CONFLICT"},
		{errors.New("plain failure"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, tc.err)

		if rec.Code != tc.wantStatus {
			t.Fatalf("%v: expected status %d got %d", tc.err, tc.wantStatus, rec.Code)
		}
		var envelope types.ErrorEnvelope
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if envelope.Error.Code != tc.wantCode {
			t.Fatalf("%v: expected code %s got %s", tc.err, tc.wantCode, envelope.Error.Code)
		}
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pg constraint blew up"))

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}
