package tab

import (
	"context"
	"errors"
	"fmt"

	"github.com/caderneta/caderneta/internal/ledger"
	"github.com/caderneta/caderneta/internal/notification"
)

// ErrValidation marks a transaction rejected before any write. Callers can
// correct the input and resubmit.
var ErrValidation = errors.New("invalid transaction")

// Service records transactions and serves single-customer views.
type Service struct {
	store    Store
	notifier notification.Notifier
}

// NewService builds a tab service instance.
func NewService(store Store, notifier notification.Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Record validates and commits one transaction. Validation failures are
// reported as ErrValidation and nothing is written. On success the outcome
// is also published through the notifier, best effort.
func (s *Service) Record(ctx context.Context, txn Transaction) (Outcome, error) {
	if !txn.Kind.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown kind %q", ErrValidation, txn.Kind)
	}
	if txn.Amount <= 0 {
		return Outcome{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if txn.OccurredAt.IsZero() {
		return Outcome{}, fmt.Errorf("%w: occurred_at is required", ErrValidation)
	}
	if txn.Kind == ledger.KindCreditSale && txn.CustomerName == "" {
		return Outcome{}, fmt.Errorf("%w: a credit sale requires a customer name", ErrValidation)
	}

	out, err := s.store.RecordTransaction(ctx, txn)
	if err != nil {
		return Outcome{}, err
	}

	if s.notifier != nil {
		kind := notification.KindTransactionRecorded
		if out.Settled {
			kind = notification.KindTabSettled
		}
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:         kind,
			CustomerID:   out.CustomerID,
			CustomerName: out.CustomerName,
			Amount:       txn.Amount,
			Balance:      out.Balance,
			OccurredAt:   txn.OccurredAt,
		})
	}

	return out, nil
}

// Ledger returns a customer and their entries, newest first.
func (s *Service) Ledger(ctx context.Context, customerID string) (Ledger, error) {
	customer, err := s.store.Customer(ctx, customerID)
	if err != nil {
		return Ledger{}, err
	}
	entries, err := s.store.Entries(ctx, customerID)
	if err != nil {
		return Ledger{}, err
	}
	return Ledger{Customer: customer, Entries: entries}, nil
}

// Balance computes the customer's current balance and last credit sale
// date from their entries. Always derived on read, never cached.
func (s *Service) Balance(ctx context.Context, customerID string) (ledger.Summary, error) {
	if _, err := s.store.Customer(ctx, customerID); err != nil {
		return ledger.Summary{}, err
	}
	entries, err := s.store.Entries(ctx, customerID)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Summarize(entries), nil
}

// Customers lists every customer ordered by name.
func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	return s.store.Customers(ctx)
}

// Rename updates a customer's display name and propagates it to the name
// snapshots held by the report feed.
func (s *Service) Rename(ctx context.Context, customerID, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	return s.store.RenameCustomer(ctx, customerID, newName)
}
