package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/adapter/http/dto"
	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/usecase"
)

type reconciliationServiceStub struct {
	generateFn func(ctx context.Context) (domain.MatchRun, error)
	commitFn   func(ctx context.Context, input usecase.CommitInput) (*usecase.CommitResult, error)
	autoFn     func(ctx context.Context) (*usecase.AutoReconcileResult, error)
}

func (s *reconciliationServiceStub) GenerateCandidates(ctx context.Context) (domain.MatchRun, error) {
	return s.generateFn(ctx)
}

func (s *reconciliationServiceStub) CommitReconciliation(ctx context.Context, input usecase.CommitInput) (*usecase.CommitResult, error) {
	return s.commitFn(ctx, input)
}

func (s *reconciliationServiceStub) AutoReconcile(ctx context.Context) (*usecase.AutoReconcileResult, error) {
	return s.autoFn(ctx)
}

func TestReconciliationHandler_Candidates(t *testing.T) {
	run := domain.MatchRun{
		Candidates: []domain.Candidate{
			{InvoiceID: "inv-1", TransactionID: "tx-1", MatchScore: decimal.NewFromInt(1)},
			{InvoiceID: "inv-2", TransactionID: "tx-2", MatchScore: decimal.RequireFromString("0.87")},
		},
	}

	handler := NewReconciliationHandler(&reconciliationServiceStub{
		generateFn: func(ctx context.Context) (domain.MatchRun, error) {
			return run, nil
		},
	}, domain.DefaultMatchConfig(), testMetrics())

	req := httptest.NewRequest(http.MethodGet, "/reconciliation/candidates", nil)
	rec := httptest.NewRecorder()

	handler.Candidates(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.MatchRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(resp.Candidates))
	}

	if !resp.Candidates[0].AutoEligible {
		t.Fatalf("expected perfect match to be auto eligible")
	}

	if resp.Candidates[1].AutoEligible {
		t.Fatalf("expected 0.87 match to require manual confirmation")
	}
}

func TestReconciliationHandler_Commit_Success(t *testing.T) {
	var captured usecase.CommitInput
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		commitFn: func(ctx context.Context, input usecase.CommitInput) (*usecase.CommitResult, error) {
			captured = input
			return &usecase.CommitResult{
				InvoiceUpdated:     true,
				TransactionUpdated: true,
				EntryPosted:        true,
				Entry:              testEntry("entry-1"),
			}, nil
		},
	}, domain.DefaultMatchConfig(), testMetrics())

	body, _ := json.Marshal(dto.CommitReconciliationRequest{
		InvoiceID:     "inv-1",
		TransactionID: "tx-1",
		MatchScore:    decimal.RequireFromString("0.93"),
	})

	req := httptest.NewRequest(http.MethodPost, "/reconciliation/commit", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Commit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.InvoiceID != "inv-1" || captured.TransactionID != "tx-1" || captured.Auto {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.CommitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.InvoiceUpdated || !resp.TransactionUpdated || !resp.EntryPosted {
		t.Fatalf("expected all effects reported, got %+v", resp)
	}
}

func TestReconciliationHandler_Commit_MissingIDs(t *testing.T) {
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		commitFn: func(ctx context.Context, input usecase.CommitInput) (*usecase.CommitResult, error) {
			t.Fatal("CommitReconciliation should not be called")
			return nil, nil
		},
	}, domain.DefaultMatchConfig(), testMetrics())

	body, _ := json.Marshal(dto.CommitReconciliationRequest{InvoiceID: "inv-1"})
	req := httptest.NewRequest(http.MethodPost, "/reconciliation/commit", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Commit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReconciliationHandler_Commit_AlreadyReconciled(t *testing.T) {
	handler := NewReconciliationHandler(&reconciliationServiceStub{
		commitFn: func(ctx context.Context, input usecase.CommitInput) (*usecase.CommitResult, error) {
			return nil, domain.ErrAlreadyReconciled
		},
	}, domain.DefaultMatchConfig(), testMetrics())

	body, _ := json.Marshal(dto.CommitReconciliationRequest{
		InvoiceID:     "inv-1",
		TransactionID: "tx-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/reconciliation/commit", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Commit(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReconciliationHandler_AutoReconcile(t *testing.T) {
	result := &usecase.AutoReconcileResult{
		Committed: []domain.Candidate{
			{InvoiceID: "inv-1", TransactionID: "tx-1", MatchScore: decimal.NewFromInt(1)},
		},
		Queued: []domain.Candidate{
			{InvoiceID: "inv-2", TransactionID: "tx-2", MatchScore: decimal.RequireFromString("0.9")},
		},
		RunAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}

	handler := NewReconciliationHandler(&reconciliationServiceStub{
		autoFn: func(ctx context.Context) (*usecase.AutoReconcileResult, error) {
			return result, nil
		},
	}, domain.DefaultMatchConfig(), testMetrics())

	req := httptest.NewRequest(http.MethodPost, "/reconciliation/auto", nil)
	rec := httptest.NewRecorder()

	handler.AutoReconcile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.AutoReconcileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Committed) != 1 || len(resp.Queued) != 1 {
		t.Fatalf("unexpected batch summary: %+v", resp)
	}

	if !resp.Committed[0].AutoEligible || resp.Queued[0].AutoEligible {
		t.Fatalf("expected eligibility flags to follow scores, got %+v", resp)
	}
}
