package tab

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caderneta/caderneta/internal/ledger"
)

type memoryStore struct {
	mu        sync.RWMutex
	customers map[string]Customer       // by id
	ids       map[string]string         // exact name -> id, the uniqueness constraint
	entries   map[string][]ledger.Entry // by customer id
	payments  []PaymentRecord
}

// NewMemoryStore builds an in-memory store. It backs unit tests and the
// development mode where no database is configured. The single mutex makes
// every operation atomic, which also covers the per-customer
// read-then-decide-then-write sequence in RecordTransaction.
func NewMemoryStore() Store {
	return &memoryStore{
		customers: make(map[string]Customer),
		ids:       make(map[string]string),
		entries:   make(map[string][]ledger.Entry),
	}
}

func (s *memoryStore) RecordTransaction(_ context.Context, tx Transaction) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Outcome
	if tx.CustomerName != "" {
		id, ok := s.ids[tx.CustomerName]
		if !ok {
			id = uuid.NewString()
			s.customers[id] = Customer{ID: id, Name: tx.CustomerName, CreatedAt: time.Now().UTC()}
			s.ids[tx.CustomerName] = id
		}
		out.CustomerID = id
		out.CustomerName = tx.CustomerName
	}

	if tx.Kind == ledger.KindPayment {
		s.payments = append(s.payments, PaymentRecord{
			ID:           uuid.NewString(),
			CustomerID:   out.CustomerID,
			CustomerName: out.CustomerName,
			Amount:       tx.Amount,
			OccurredAt:   tx.OccurredAt,
		})
	}

	if out.CustomerID == "" {
		return out, nil
	}

	switch tx.Kind {
	case ledger.KindCreditSale:
		s.entries[out.CustomerID] = append(s.entries[out.CustomerID], ledger.Entry{
			ID:         uuid.NewString(),
			Kind:       ledger.KindCreditSale,
			Amount:     tx.Amount,
			OccurredAt: tx.OccurredAt,
		})
	case ledger.KindPayment:
		balance := ledger.Summarize(s.entries[out.CustomerID]).Balance
		if ledger.ClearsDebt(balance, tx.Amount) {
			delete(s.entries, out.CustomerID)
			out.Settled = true
		} else {
			s.entries[out.CustomerID] = append(s.entries[out.CustomerID], ledger.Entry{
				ID:         uuid.NewString(),
				Kind:       ledger.KindPayment,
				Amount:     tx.Amount,
				OccurredAt: tx.OccurredAt,
			})
		}
	}

	out.Balance = ledger.Summarize(s.entries[out.CustomerID]).Balance
	return out, nil
}

func (s *memoryStore) Customer(_ context.Context, id string) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *memoryStore) Customers(_ context.Context) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers := make([]Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (s *memoryStore) CustomersByIDs(_ context.Context, ids []string) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers := make([]Customer, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.customers[id]; ok {
			customers = append(customers, c)
		}
	}
	return customers, nil
}

func (s *memoryStore) Entries(_ context.Context, customerID string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]ledger.Entry, len(s.entries[customerID]))
	copy(entries, s.entries[customerID])
	sort.Slice(entries, func(i, j int) bool { return entries[i].OccurredAt.After(entries[j].OccurredAt) })
	return entries, nil
}

func (s *memoryStore) AllEntries(_ context.Context) (map[string][]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make(map[string][]ledger.Entry, len(s.entries))
	for customerID, entries := range s.entries {
		copied := make([]ledger.Entry, len(entries))
		copy(copied, entries)
		all[customerID] = copied
	}
	return all, nil
}

func (s *memoryStore) Payments(_ context.Context) ([]PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]PaymentRecord, len(s.payments))
	copy(payments, s.payments)
	return payments, nil
}

func (s *memoryStore) RenameCustomer(_ context.Context, id, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	if other, taken := s.ids[newName]; taken && other != id {
		return ErrNameTaken
	}

	delete(s.ids, customer.Name)
	customer.Name = newName
	s.customers[id] = customer
	s.ids[newName] = id

	for i := range s.payments {
		if s.payments[i].CustomerID == id {
			s.payments[i].CustomerName = newName
		}
	}
	return nil
}
