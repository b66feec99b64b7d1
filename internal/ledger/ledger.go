package ledger

import "time"

// Kind discriminates the two entry types a customer ledger can hold.
type Kind string

const (
	// KindCreditSale is a "fiado" sale: goods handed over now, payment owed later.
	KindCreditSale Kind = "fiado"
	// KindPayment is money received against an outstanding balance.
	KindPayment Kind = "pagamento"
)

// Valid reports whether the kind is one of the two known entry types.
func (k Kind) Valid() bool {
	return k == KindCreditSale || k == KindPayment
}

// Epsilon is the tolerance used for every monetary comparison against zero.
// Amounts are summed as float64, so a fully paid tab is not guaranteed to
// land exactly on 0.
const Epsilon = 0.001

// Entry is one event in a customer's ledger.
type Entry struct {
	ID         string
	Kind       Kind
	Amount     float64
	OccurredAt time.Time
}

// Summary is the derived state of one customer's ledger. LastCreditSale is
// the zero time when the ledger holds no credit sale.
type Summary struct {
	Balance        float64
	LastCreditSale time.Time
}

// Summarize folds a customer's entries into their current balance and the
// date of their most recent credit sale. Credit sales add, payments
// subtract. Entry order does not matter. An empty set yields the zero
// Summary.
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Kind {
		case KindCreditSale:
			s.Balance += e.Amount
			if e.OccurredAt.After(s.LastCreditSale) {
				s.LastCreditSale = e.OccurredAt
			}
		case KindPayment:
			s.Balance -= e.Amount
		}
	}
	return s
}

// SummarizeAll computes the Summary for every customer in one pass over
// entries grouped by customer id.
func SummarizeAll(entriesByCustomer map[string][]Entry) map[string]Summary {
	summaries := make(map[string]Summary, len(entriesByCustomer))
	for customerID, entries := range entriesByCustomer {
		summaries[customerID] = Summarize(entries)
	}
	return summaries
}

// ClearsDebt is the settlement rule: a payment settles the tab when it
// brings the balance to zero or below, within Epsilon. Overpayment still
// settles; the excess is not carried forward.
func ClearsDebt(balanceBefore, payment float64) bool {
	return balanceBefore-payment <= Epsilon
}

// InDebt reports whether a balance counts as outstanding debt.
func InDebt(balance float64) bool {
	return balance > Epsilon
}
