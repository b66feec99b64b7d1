package tab

import (
	"time"

	"github.com/caderneta/caderneta/internal/ledger"
)

// Customer is a named debtor/payer. Balance is never stored; it is always
// derived from the customer's ledger entries.
type Customer struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Transaction is one submitted event: a credit sale or a payment.
// CustomerName may be empty only for payments (a walk-in payment that is
// reported but never enters any ledger).
type Transaction struct {
	Kind         ledger.Kind
	CustomerName string
	Amount       float64
	OccurredAt   time.Time
}

// PaymentRecord is one row of the report feed: the flat log of every
// payment received, kept for reporting independently of customer ledgers.
// CustomerID and CustomerName are empty for walk-in payments; CustomerName
// is a snapshot taken at write time and rewritten on rename.
type PaymentRecord struct {
	ID           string
	CustomerID   string
	CustomerName string
	Amount       float64
	OccurredAt   time.Time
}

// Outcome describes what recording a transaction did to the ledger.
type Outcome struct {
	CustomerID   string
	CustomerName string
	// Settled is true when a payment cleared the customer's tab and the
	// ledger history was purged.
	Settled bool
	// Balance is the customer's balance after the mutation, zero for
	// walk-in payments.
	Balance float64
}

// Ledger pairs a customer with their entries, ordered by occurrence date
// descending.
type Ledger struct {
	Customer Customer
	Entries  []ledger.Entry
}
