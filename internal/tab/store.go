package tab

import (
	"context"
	"errors"

	"github.com/caderneta/caderneta/internal/ledger"
)

var (
	// ErrCustomerNotFound indicates a lookup or rename referenced an
	// unknown customer id.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrNameTaken indicates a rename collided with another customer
	// already holding the requested name.
	ErrNameTaken = errors.New("customer name already taken")
)

// Store is the persistence contract for tabs. RecordTransaction and
// RenameCustomer are atomic units: partial application must never be
// observable to readers.
type Store interface {
	// RecordTransaction resolves the customer by exact name (creating one
	// on first reference), appends payments to the report feed, and
	// mutates the ledger: credit sales always append; payments either
	// settle the tab (purging its history) or append. Implementations
	// serialize the balance read against concurrent writes to the same
	// customer's ledger.
	RecordTransaction(ctx context.Context, tx Transaction) (Outcome, error)

	// Customer fetches one customer by id.
	Customer(ctx context.Context, id string) (Customer, error)

	// Customers lists every customer ordered by name.
	Customers(ctx context.Context) ([]Customer, error)

	// CustomersByIDs fetches the customers for the given ids. Unknown ids
	// are skipped. Callers are expected to keep the id set small; bulk
	// consumers chunk before calling.
	CustomersByIDs(ctx context.Context, ids []string) ([]Customer, error)

	// Entries returns one customer's ledger ordered by occurrence date
	// descending.
	Entries(ctx context.Context, customerID string) ([]ledger.Entry, error)

	// AllEntries returns every ledger entry grouped by customer id.
	AllEntries(ctx context.Context) (map[string][]ledger.Entry, error)

	// Payments returns the full report feed.
	Payments(ctx context.Context) ([]PaymentRecord, error)

	// RenameCustomer updates the customer's name and rewrites the name
	// snapshot on every report feed row carrying the customer's id, as one
	// atomic unit.
	RenameCustomer(ctx context.Context, id, newName string) error
}
