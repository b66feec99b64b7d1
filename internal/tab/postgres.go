package tab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caderneta/caderneta/internal/ledger"
)

// PostgresStore persists customers, ledger entries and the payment report
// feed in PostgreSQL. The customers.name column carries a unique
// constraint, closing the find-or-create race between concurrent first
// references to the same name.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed tab store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const balanceQuery = `
    SELECT COALESCE(SUM(CASE WHEN kind = 'fiado' THEN amount ELSE -amount END), 0)
    FROM entries WHERE customer_id = $1`

// RecordTransaction commits customer resolution, the report feed append and
// the ledger mutation as one SQL transaction. The customer row is locked
// with FOR UPDATE so concurrent payments to the same customer cannot
// interleave their balance reads with each other's writes.
func (s *PostgresStore) RecordTransaction(ctx context.Context, txn Transaction) (Outcome, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Outcome{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var out Outcome
	var customerID uuid.UUID

	if txn.CustomerName != "" {
		customerID, err = resolveCustomer(ctx, tx, txn.CustomerName)
		if err != nil {
			return Outcome{}, err
		}
		out.CustomerID = customerID.String()
		out.CustomerName = txn.CustomerName
	}

	if txn.Kind == ledger.KindPayment {
		var cid, cname any
		if out.CustomerID != "" {
			cid, cname = customerID, txn.CustomerName
		}
		_, err = tx.Exec(ctx, `INSERT INTO payments (id, customer_id, customer_name, amount, occurred_at)
            VALUES ($1, $2, $3, $4, $5)`, uuid.New(), cid, cname, txn.Amount, txn.OccurredAt.UTC())
		if err != nil {
			return Outcome{}, fmt.Errorf("append payment report: %w", err)
		}
	}

	if out.CustomerID != "" {
		switch txn.Kind {
		case ledger.KindCreditSale:
			_, err = tx.Exec(ctx, `INSERT INTO entries (id, customer_id, kind, amount, occurred_at)
                VALUES ($1, $2, $3, $4, $5)`, uuid.New(), customerID, ledger.KindCreditSale, txn.Amount, txn.OccurredAt.UTC())
			if err != nil {
				return Outcome{}, fmt.Errorf("append credit sale: %w", err)
			}
			if err := tx.QueryRow(ctx, balanceQuery, customerID).Scan(&out.Balance); err != nil {
				return Outcome{}, err
			}
		case ledger.KindPayment:
			var balance float64
			if err := tx.QueryRow(ctx, balanceQuery, customerID).Scan(&balance); err != nil {
				return Outcome{}, err
			}
			if ledger.ClearsDebt(balance, txn.Amount) {
				if _, err := tx.Exec(ctx, `DELETE FROM entries WHERE customer_id = $1`, customerID); err != nil {
					return Outcome{}, fmt.Errorf("clear ledger: %w", err)
				}
				out.Settled = true
				out.Balance = 0
			} else {
				_, err = tx.Exec(ctx, `INSERT INTO entries (id, customer_id, kind, amount, occurred_at)
                    VALUES ($1, $2, $3, $4, $5)`, uuid.New(), customerID, ledger.KindPayment, txn.Amount, txn.OccurredAt.UTC())
				if err != nil {
					return Outcome{}, fmt.Errorf("append payment: %w", err)
				}
				out.Balance = balance - txn.Amount
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func resolveCustomer(ctx context.Context, tx pgx.Tx, name string) (uuid.UUID, error) {
	const lockQuery = `SELECT id FROM customers WHERE name = $1 FOR UPDATE`

	var id uuid.UUID
	err := tx.QueryRow(ctx, lockQuery, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, err
	}

	err = tx.QueryRow(ctx, `INSERT INTO customers (id, name, created_at) VALUES ($1, $2, $3)
        ON CONFLICT (name) DO NOTHING RETURNING id`, uuid.New(), name, time.Now().UTC()).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, err
	}

	// A concurrent submission won the insert; take its row.
	if err := tx.QueryRow(ctx, lockQuery, name).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Customer fetches one customer by id.
func (s *PostgresStore) Customer(ctx context.Context, id string) (Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return Customer{}, ErrCustomerNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, name, created_at FROM customers WHERE id = $1`, customerID)
	customer, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	return customer, err
}

// Customers lists every customer ordered by name.
func (s *PostgresStore) Customers(ctx context.Context) ([]Customer, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, created_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// CustomersByIDs fetches the customers for the given id set.
func (s *PostgresStore) CustomersByIDs(ctx context.Context, ids []string) ([]Customer, error) {
	customerIDs := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		customerID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		customerIDs = append(customerIDs, customerID)
	}
	rows, err := s.db.Query(ctx, `SELECT id, name, created_at FROM customers WHERE id = ANY($1)`, customerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// Entries returns one customer's ledger, newest first.
func (s *PostgresStore) Entries(ctx context.Context, customerID string) ([]ledger.Entry, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT id, kind, amount, occurred_at FROM entries
        WHERE customer_id = $1 ORDER BY occurred_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var entryID uuid.UUID
		var e ledger.Entry
		var occurredAt time.Time
		if err := rows.Scan(&entryID, &e.Kind, &e.Amount, &occurredAt); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.OccurredAt = occurredAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AllEntries streams every ledger entry grouped by customer id.
func (s *PostgresStore) AllEntries(ctx context.Context) (map[string][]ledger.Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT customer_id, id, kind, amount, occurred_at FROM entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := make(map[string][]ledger.Entry)
	for rows.Next() {
		var customerID, entryID uuid.UUID
		var e ledger.Entry
		var occurredAt time.Time
		if err := rows.Scan(&customerID, &entryID, &e.Kind, &e.Amount, &occurredAt); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.OccurredAt = occurredAt.UTC()
		all[customerID.String()] = append(all[customerID.String()], e)
	}
	return all, rows.Err()
}

// Payments returns the full report feed.
func (s *PostgresStore) Payments(ctx context.Context) ([]PaymentRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT id, customer_id, customer_name, amount, occurred_at FROM payments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []PaymentRecord
	for rows.Next() {
		var id uuid.UUID
		var customerID *uuid.UUID
		var customerName *string
		var p PaymentRecord
		var occurredAt time.Time
		if err := rows.Scan(&id, &customerID, &customerName, &p.Amount, &occurredAt); err != nil {
			return nil, err
		}
		p.ID = id.String()
		if customerID != nil {
			p.CustomerID = customerID.String()
		}
		if customerName != nil {
			p.CustomerName = *customerName
		}
		p.OccurredAt = occurredAt.UTC()
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// RenameCustomer updates the customer row and every report feed snapshot in
// one transaction.
func (s *PostgresStore) RenameCustomer(ctx context.Context, id, newName string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return ErrCustomerNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var holder uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM customers WHERE name = $1`, newName).Scan(&holder)
	if err == nil && holder != customerID {
		return ErrNameTaken
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	cmd, err := tx.Exec(ctx, `UPDATE customers SET name = $1 WHERE id = $2`, newName, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE payments SET customer_name = $1 WHERE customer_id = $2`, newName, customerID); err != nil {
		return fmt.Errorf("propagate rename to report feed: %w", err)
	}

	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (Customer, error) {
	var id uuid.UUID
	var c Customer
	var createdAt time.Time
	if err := row.Scan(&id, &c.Name, &createdAt); err != nil {
		return Customer{}, err
	}
	c.ID = id.String()
	c.CreatedAt = createdAt.UTC()
	return c, nil
}

func scanCustomers(rows pgx.Rows) ([]Customer, error) {
	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
