// Package reconciler applies provider balance callbacks (bet/win/refund/
// balance) against the ledger with exactly-once economic effect. The
// idempotency store is always consulted before any balance mutation; the
// whole check-and-apply runs under a per-account lock so duplicate and
// out-of-order deliveries cannot interleave.
package reconciler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"moongamble/internal/models"
	"moongamble/internal/services/idempotency"
	"moongamble/internal/services/ledger"
)

// Service reconciles inbound provider actions.
type Service interface {
	ApplyAction(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	store  idempotency.Store
	ledger ledger.Service

	muMap map[string]*sync.Mutex
	mapMu sync.Mutex
}

// NewService creates a new reconciler.
func NewService(store idempotency.Store, ledgerSvc ledger.Service) Service {
	if store == nil {
		panic("idempotency store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &service{
		store:  store,
		ledger: ledgerSvc,
		muMap:  make(map[string]*sync.Mutex),
	}
}

func (s *service) accountLock(accountID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	if _, exists := s.muMap[accountID]; !exists {
		s.muMap[accountID] = &sync.Mutex{}
	}
	return s.muMap[accountID]
}

func (s *service) ApplyAction(ctx context.Context, req Request) (*Result, error) {
	if req.SessionID == "" || req.AccountID == "" {
		return nil, ErrMissingFields
	}
	if req.Action != ActionBalance && req.TransactionID == "" {
		return nil, ErrMissingFields
	}

	mu := s.accountLock(req.AccountID)
	mu.Lock()
	defer mu.Unlock()

	// Session binding precedes all action-specific logic.
	if err := s.store.BindSession(ctx, req.SessionID, req.AccountID); err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionBalance:
		balance, err := s.ledger.GetBalance(ctx, req.AccountID)
		if err != nil {
			return nil, err
		}
		return &Result{Balance: balance}, nil
	case ActionBet:
		return s.applyBet(ctx, req)
	case ActionWin, ActionRefund:
		return s.applyCredit(ctx, req)
	default:
		return nil, ErrUnexpectedAction
	}
}

// applyBet: duplicate-check first (the record insert is the gate),
// zero-amount short-circuit second, insufficient funds last. Nothing touches
// the ledger until the transaction is registered.
func (s *service) applyBet(ctx context.Context, req Request) (*Result, error) {
	inserted, err := s.record(ctx, req)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.replay(ctx, req)
	}

	balance, err := s.ledger.Debit(ctx, ledger.Operation{
		AccountID:     req.AccountID,
		SessionID:     req.SessionID,
		TransactionID: req.TransactionID,
		Type:          models.EntryTypeBet,
		Amount:        req.Amount,
	})
	if err != nil {
		s.release(ctx, req)
		return nil, err
	}
	return &Result{Balance: balance, TransactionID: req.TransactionID}, nil
}

func (s *service) applyCredit(ctx context.Context, req Request) (*Result, error) {
	if req.Reference == "" {
		return nil, ErrInvalidReference
	}

	inserted, err := s.record(ctx, req)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.replay(ctx, req)
	}

	ref, err := s.store.Lookup(ctx, req.SessionID, req.Reference)
	if err != nil {
		s.release(ctx, req)
		return nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}
	if ref == nil || ref.Amount.IsZero() {
		s.release(ctx, req)
		return nil, ErrInvalidReference
	}
	if req.Action == ActionRefund && ref.Action == string(ActionWin) {
		s.release(ctx, req)
		return nil, ErrInvalidReference
	}

	entryType := models.EntryTypeWin
	if req.Action == ActionRefund {
		entryType = models.EntryTypeRefund
	}
	balance, err := s.ledger.Credit(ctx, ledger.Operation{
		AccountID:     req.AccountID,
		SessionID:     req.SessionID,
		TransactionID: req.TransactionID,
		ReferenceID:   req.Reference,
		Type:          entryType,
		Amount:        req.Amount,
	})
	if err != nil {
		s.release(ctx, req)
		return nil, err
	}
	return &Result{Balance: balance, TransactionID: req.TransactionID}, nil
}

// replay answers a transaction the session has already processed. The ledger
// is not touched; the current balance is reported.
func (s *service) replay(ctx context.Context, req Request) (*Result, error) {
	log.Printf("duplicate transaction %q in session %q", req.TransactionID, req.SessionID)
	balance, err := s.ledger.GetBalance(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	return &Result{Balance: balance, TransactionID: req.TransactionID, Duplicate: true}, nil
}

// record registers the transaction before any ledger mutation. A store
// failure fails closed: the request is rejected with no balance change.
func (s *service) record(ctx context.Context, req Request) (bool, error) {
	inserted, err := s.store.Record(ctx, req.SessionID, idempotency.TransactionRecord{
		TransactionID: req.TransactionID,
		Action:        string(req.Action),
		Amount:        req.Amount,
		Reference:     req.Reference,
	})
	if err != nil {
		return false, fmt.Errorf("failed to record transaction: %w", err)
	}
	return inserted, nil
}

// release drops the registration of a transaction whose apply failed, so a
// later retry can still succeed. If the removal itself fails the record is
// orphaned and retries of this transaction replay instead of applying; that
// loses the retry but can never double-spend.
func (s *service) release(ctx context.Context, req Request) {
	if err := s.store.Remove(ctx, req.SessionID, req.TransactionID); err != nil {
		log.Printf("failed to release transaction %q in session %q: %v",
			req.TransactionID, req.SessionID, err)
	}
}
