package tab

import (
	"time"

	"github.com/google/uuid"

	"github.com/caderneta/caderneta/internal/ledger"
)

// SeedCustomer is a test helper that inserts a customer and their ledger
// entries directly into the in-memory store, returning the customer id.
func SeedCustomer(s Store, name string, entries ...ledger.Entry) string {
	mem, ok := s.(*memoryStore)
	if !ok {
		return ""
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()

	id, exists := mem.ids[name]
	if !exists {
		id = uuid.NewString()
		mem.customers[id] = Customer{ID: id, Name: name, CreatedAt: time.Now().UTC()}
		mem.ids[name] = id
	}
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		mem.entries[id] = append(mem.entries[id], e)
	}
	return id
}
