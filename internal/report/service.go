package report

import (
	"context"
	"sort"
	"time"

	"github.com/caderneta/caderneta/internal/ledger"
	"github.com/caderneta/caderneta/internal/tab"
)

// customerLookupChunkSize caps how many ids a single bulk customer lookup
// may carry. Debtor sets larger than this are fetched in several queries
// and merged.
const customerLookupChunkSize = 30

// walkInLabel is the display name for payments recorded without a customer.
const walkInLabel = "Pagamento Avulso"

// Debtor is a customer with outstanding debt.
type Debtor struct {
	ID             string
	Name           string
	Balance        float64
	LastCreditSale time.Time
}

// CustomerBalance pairs a customer with their current balance, including
// customers whose balance is zero.
type CustomerBalance struct {
	ID      string
	Name    string
	Balance float64
}

// Transaction is one row of the merged sales/payments view.
type Transaction struct {
	ID           string
	Kind         ledger.Kind
	Amount       float64
	OccurredAt   time.Time
	CustomerID   string
	CustomerName string
}

// Service computes fleet-wide views over every customer's ledger and the
// payment report feed.
type Service struct {
	store tab.Store
}

// NewService builds a report service instance.
func NewService(store tab.Store) *Service {
	return &Service{store: store}
}

// Debtors returns every customer whose balance counts as debt, sorted by
// balance descending. Names are resolved through chunked bulk lookups.
func (s *Service) Debtors(ctx context.Context) ([]Debtor, error) {
	all, err := s.store.AllEntries(ctx)
	if err != nil {
		return nil, err
	}
	summaries := ledger.SummarizeAll(all)

	ids := make([]string, 0, len(summaries))
	for customerID, summary := range summaries {
		if ledger.InDebt(summary.Balance) {
			ids = append(ids, customerID)
		}
	}
	if len(ids) == 0 {
		return []Debtor{}, nil
	}

	debtors := make([]Debtor, 0, len(ids))
	for _, chunk := range chunkIDs(ids, customerLookupChunkSize) {
		customers, err := s.store.CustomersByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, customer := range customers {
			summary := summaries[customer.ID]
			debtors = append(debtors, Debtor{
				ID:             customer.ID,
				Name:           customer.Name,
				Balance:        summary.Balance,
				LastCreditSale: summary.LastCreditSale,
			})
		}
	}

	sort.Slice(debtors, func(i, j int) bool { return debtors[i].Balance > debtors[j].Balance })
	return debtors, nil
}

// CustomerBalances returns every customer with their current balance,
// ordered by name. Customers without entries report zero.
func (s *Service) CustomerBalances(ctx context.Context) ([]CustomerBalance, error) {
	customers, err := s.store.Customers(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.store.AllEntries(ctx)
	if err != nil {
		return nil, err
	}
	summaries := ledger.SummarizeAll(all)

	balances := make([]CustomerBalance, 0, len(customers))
	for _, customer := range customers {
		balances = append(balances, CustomerBalance{
			ID:      customer.ID,
			Name:    customer.Name,
			Balance: summaries[customer.ID].Balance,
		})
	}
	return balances, nil
}

// Transactions merges credit sales from every ledger with the full payment
// report feed, sorted by occurrence date descending. Walk-in payments show
// a generic label instead of a customer name.
func (s *Service) Transactions(ctx context.Context) ([]Transaction, error) {
	all, err := s.store.AllEntries(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(all))
	for customerID := range all {
		ids = append(ids, customerID)
	}
	names := make(map[string]string, len(ids))
	for _, chunk := range chunkIDs(ids, customerLookupChunkSize) {
		customers, err := s.store.CustomersByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, customer := range customers {
			names[customer.ID] = customer.Name
		}
	}

	var merged []Transaction
	for customerID, entries := range all {
		for _, e := range entries {
			if e.Kind != ledger.KindCreditSale {
				continue
			}
			merged = append(merged, Transaction{
				ID:           e.ID,
				Kind:         ledger.KindCreditSale,
				Amount:       e.Amount,
				OccurredAt:   e.OccurredAt,
				CustomerID:   customerID,
				CustomerName: names[customerID],
			})
		}
	}

	payments, err := s.store.Payments(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		name := p.CustomerName
		if name == "" {
			name = walkInLabel
		}
		merged = append(merged, Transaction{
			ID:           p.ID,
			Kind:         ledger.KindPayment,
			Amount:       p.Amount,
			OccurredAt:   p.OccurredAt,
			CustomerID:   p.CustomerID,
			CustomerName: name,
		})
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].OccurredAt.After(merged[j].OccurredAt) })
	return merged, nil
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
