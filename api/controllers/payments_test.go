package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/internal/payments"
	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

type testPaymentsService struct {
	submitFn func(ctx context.Context, input payments.SubmitPaymentInput) (*payments.PaymentOutcome, error)
	listFn   func(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error)
	codesFn  func(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error)
}

func (s *testPaymentsService) SubmitPayment(ctx context.Context, input payments.SubmitPaymentInput) (*payments.PaymentOutcome, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, input)
	}
	return nil, nil
}

func (s *testPaymentsService) ListPayments(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error) {
	if s.listFn != nil {
		return s.listFn(ctx, itemID)
	}
	return nil, nil
}

func (s *testPaymentsService) ListGeneratedCodes(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error) {
	if s.codesFn != nil {
		return s.codesFn(ctx, itemID)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestPaymentSubmitSuccess(t *testing.T) {
	itemID := uuid.New()
	var got payments.SubmitPaymentInput
	svc := &testPaymentsService{
		submitFn: func(ctx context.Context, input payments.SubmitPaymentInput) (*payments.PaymentOutcome, error) {
			got = input
			return &payments.PaymentOutcome{
				Detail:         "Code generated for daily usage.",
				Decision:       payments.DecisionIntervalEligible,
				CurrentBalance: decimal.NewFromInt(5),
				Status:         enums.ItemStatusPartiallyPaid,
				Token:          "123456789",
				TokenType:      enums.TokenTypeAddTime,
				Days:           decimal.NewFromInt(2),
			}, nil
		},
	}

	body := `{"item_id":"` + itemID.String() + `","amount":"45.00","note":"mobile money"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PaymentSubmit(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.ItemID != itemID {
		t.Fatalf("service saw item %s, want %s", got.ItemID, itemID)
	}
	if !got.Amount.Equal(decimal.RequireFromString("45.00")) {
		t.Fatalf("service saw amount %s", got.Amount)
	}
	if got.Note != "mobile money" {
		t.Fatalf("note not forwarded, got %q", got.Note)
	}

	var envelope struct {
		Data payments.PaymentOutcome `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Token != "123456789" {
		t.Fatalf("token missing from response: %+v", envelope.Data)
	}
	if envelope.Data.Decision != payments.DecisionIntervalEligible {
		t.Fatalf("unexpected decision %s", envelope.Data.Decision)
	}
}

func TestPaymentSubmitRejectsMalformedAmount(t *testing.T) {
	called := false
	svc := &testPaymentsService{
		submitFn: func(ctx context.Context, input payments.SubmitPaymentInput) (*payments.PaymentOutcome, error) {
			called = true
			return nil, nil
		},
	}

	body := `{"item_id":"` + uuid.NewString() + `","amount":"forty-five"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PaymentSubmit(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service must not run on malformed input")
	}
}

func TestPaymentSubmitRejectsUnknownFields(t *testing.T) {
	body := `{"item_id":"` + uuid.NewString() + `","amount":"45","bogus":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PaymentSubmit(&testPaymentsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentSubmitMapsServiceErrors(t *testing.T) {
	svc := &testPaymentsService{
		submitFn: func(ctx context.Context, input payments.SubmitPaymentInput) (*payments.PaymentOutcome, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "encoder unavailable")
		},
	}

	body := `{"item_id":"` + uuid.NewString() + `","amount":"45"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PaymentSubmit(svc, testLogger())(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestPaymentHistory(t *testing.T) {
	itemID := uuid.New()
	svc := &testPaymentsService{
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.Payment, error) {
			if id != itemID {
				t.Fatalf("unexpected item %s", id)
			}
			return []models.Payment{{ItemID: itemID, AmountPaid: decimal.NewFromInt(45)}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/payments", nil)
	req = addRouteParam(req, "itemId", itemID.String())
	resp := httptest.NewRecorder()
	PaymentHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []models.Payment `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected one payment, got %d", len(envelope.Data))
	}
}

func TestPaymentCodesRejectsBadItemID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/not-a-uuid/codes", nil)
	req = addRouteParam(req, "itemId", "not-a-uuid")
	resp := httptest.NewRecorder()
	PaymentCodes(&testPaymentsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
