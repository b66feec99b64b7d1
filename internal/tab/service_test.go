package tab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caderneta/caderneta/internal/ledger"
	"github.com/caderneta/caderneta/internal/notification"
)

type captureNotifier struct {
	last notification.Message
	sent int
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	n.sent++
	return nil
}

func day(n int) time.Time {
	return time.Date(2026, time.August, n, 12, 0, 0, 0, time.UTC)
}

func sale(name string, amount float64, at time.Time) Transaction {
	return Transaction{Kind: ledger.KindCreditSale, CustomerName: name, Amount: amount, OccurredAt: at}
}

func payment(name string, amount float64, at time.Time) Transaction {
	return Transaction{Kind: ledger.KindPayment, CustomerName: name, Amount: amount, OccurredAt: at}
}

func TestRecordCreditSaleCreatesCustomer(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Record(ctx, sale("Ana Silva", 25, day(1)))
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if out.CustomerID == "" {
		t.Fatal("expected a customer to be created")
	}
	if out.Balance != 25 {
		t.Fatalf("expected balance 25, got %v", out.Balance)
	}

	view, err := svc.Ledger(ctx, out.CustomerID)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if view.Customer.Name != "Ana Silva" {
		t.Fatalf("unexpected customer name %q", view.Customer.Name)
	}
	if len(view.Entries) != 1 || view.Entries[0].Kind != ledger.KindCreditSale {
		t.Fatalf("unexpected entries: %+v", view.Entries)
	}
}

func TestRecordReusesCustomerByExactName(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	first, _ := svc.Record(ctx, sale("Ana", 10, day(1)))
	second, err := svc.Record(ctx, sale("Ana", 15, day(2)))
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}
	if first.CustomerID != second.CustomerID {
		t.Fatal("same name must resolve to the same customer")
	}

	// Lookup is exact and case sensitive; a variant spawns a new customer.
	variant, err := svc.Record(ctx, sale("ana", 5, day(3)))
	if err != nil {
		t.Fatalf("variant sale: %v", err)
	}
	if variant.CustomerID == first.CustomerID {
		t.Fatal("case variant must create a distinct customer")
	}
}

func TestPartialPaymentPreservesHistory(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	svc.Record(ctx, sale("Bruno", 50, day(1)))
	out, err := svc.Record(ctx, payment("Bruno", 20, day(2)))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if out.Settled {
		t.Fatal("partial payment must not settle the tab")
	}
	if out.Balance != 30 {
		t.Fatalf("expected balance 30, got %v", out.Balance)
	}

	entries, err := store.Entries(ctx, out.CustomerID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected sale + payment entries, got %d", len(entries))
	}
}

func TestExactPaymentClearsLedger(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	svc.Record(ctx, sale("Carla", 30, day(1)))
	svc.Record(ctx, sale("Carla", 20, day(2)))
	out, err := svc.Record(ctx, payment("Carla", 50, day(3)))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !out.Settled {
		t.Fatal("exact payment must settle the tab")
	}
	if out.Balance != 0 {
		t.Fatalf("expected balance 0, got %v", out.Balance)
	}

	entries, _ := store.Entries(ctx, out.CustomerID)
	if len(entries) != 0 {
		t.Fatalf("settlement must purge the ledger, got %d entries", len(entries))
	}

	summary, err := svc.Balance(ctx, out.CustomerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if summary.Balance != 0 {
		t.Fatalf("expected balance 0 after settlement, got %v", summary.Balance)
	}
}

func TestOverpaymentDiscardsExcess(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	svc.Record(ctx, sale("Daniel", 50, day(1)))
	out, err := svc.Record(ctx, payment("Daniel", 70, day(2)))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !out.Settled {
		t.Fatal("overpayment must settle the tab")
	}
	if out.Balance != 0 {
		t.Fatalf("excess must be discarded, got balance %v", out.Balance)
	}

	entries, _ := store.Entries(ctx, out.CustomerID)
	if len(entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(entries))
	}
}

func TestPaymentWithinEpsilonSettles(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	svc.Record(ctx, sale("Eduarda", 0.1, day(1)))
	svc.Record(ctx, sale("Eduarda", 0.1, day(2)))
	svc.Record(ctx, sale("Eduarda", 0.1, day(3)))

	out, err := svc.Record(ctx, payment("Eduarda", 0.3, day(4)))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !out.Settled {
		t.Fatal("float accumulation residue within epsilon must still settle")
	}
}

func TestWalkInPaymentNeverTouchesALedger(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Record(ctx, payment("", 10, day(1)))
	if err != nil {
		t.Fatalf("walk-in payment: %v", err)
	}
	if out.CustomerID != "" {
		t.Fatal("walk-in payment must not resolve a customer")
	}

	customers, _ := store.Customers(ctx)
	if len(customers) != 0 {
		t.Fatalf("walk-in payment must not create customers, got %d", len(customers))
	}

	payments, _ := store.Payments(ctx)
	if len(payments) != 1 {
		t.Fatalf("walk-in payment must appear in the report feed, got %d", len(payments))
	}
	if payments[0].CustomerID != "" || payments[0].CustomerName != "" {
		t.Fatalf("walk-in record must carry no customer, got %+v", payments[0])
	}
}

func TestNamedPaymentAlwaysHitsReportFeed(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	svc.Record(ctx, sale("Felipe", 40, day(1)))
	svc.Record(ctx, payment("Felipe", 40, day(2)))

	// The settling payment purged the ledger but must still be reported.
	payments, _ := store.Payments(ctx)
	if len(payments) != 1 {
		t.Fatalf("expected 1 report feed row, got %d", len(payments))
	}
	if payments[0].CustomerName != "Felipe" {
		t.Fatalf("expected name snapshot, got %q", payments[0].CustomerName)
	}
}

func TestRecordValidation(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		txn  Transaction
	}{
		{"zero amount", payment("Ana", 0, day(1))},
		{"negative amount", sale("Ana", -5, day(1))},
		{"sale without name", sale("", 10, day(1))},
		{"missing timestamp", Transaction{Kind: ledger.KindPayment, CustomerName: "Ana", Amount: 10}},
		{"unknown kind", Transaction{Kind: "venda", CustomerName: "Ana", Amount: 10, OccurredAt: day(1)}},
	}

	for _, tc := range cases {
		if _, err := svc.Record(ctx, tc.txn); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}

	// Nothing may be written on a rejected transaction.
	payments, _ := store.Payments(ctx)
	customers, _ := store.Customers(ctx)
	if len(payments) != 0 || len(customers) != 0 {
		t.Fatal("rejected transactions must leave the store untouched")
	}
}

func TestRecordNotifiesSettlement(t *testing.T) {
	store := NewMemoryStore()
	notifier := &captureNotifier{}
	svc := NewService(store, notifier)
	ctx := context.Background()

	svc.Record(ctx, sale("Gabriela", 20, day(1)))
	if notifier.last.Kind != notification.KindTransactionRecorded {
		t.Fatalf("expected recorded notification, got %q", notifier.last.Kind)
	}

	svc.Record(ctx, payment("Gabriela", 20, day(2)))
	if notifier.last.Kind != notification.KindTabSettled {
		t.Fatalf("expected settled notification, got %q", notifier.last.Kind)
	}
	if notifier.sent != 2 {
		t.Fatalf("expected 2 notifications, got %d", notifier.sent)
	}
}

func TestBalanceMatchesEntrySum(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	svc.Record(ctx, sale("Helena", 30, day(1)))
	svc.Record(ctx, sale("Helena", 55.5, day(3)))
	out, _ := svc.Record(ctx, payment("Helena", 30, day(5)))

	summary, err := svc.Balance(ctx, out.CustomerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}

	entries, _ := store.Entries(ctx, out.CustomerID)
	if got := ledger.Summarize(entries).Balance; got != summary.Balance {
		t.Fatalf("balance %v diverges from entry sum %v", summary.Balance, got)
	}
	if !summary.LastCreditSale.Equal(day(3)) {
		t.Fatalf("expected last sale on day 3, got %v", summary.LastCreditSale)
	}
}

func TestBalanceUnknownCustomer(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	if _, err := svc.Balance(context.Background(), "missing"); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestRenameValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()

	if err := svc.Rename(ctx, "any", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
	if err := svc.Rename(ctx, "missing", "New Name"); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}
