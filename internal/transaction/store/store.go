package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/database"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, client_id, type, campaign, date, paid, paid_at, settled_by, created_at, updated_at
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, settledStr string

	if err := s.Scan(
		&tx.ID, &tx.ClientID, &typeStr, &tx.Campaign, &tx.Date,
		&tx.Paid, &tx.PaidAt, &settledStr,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.SettledBy = transaction.Settlement(settledStr)

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.client_id, t.type, t.campaign, t.date, t.paid, t.paid_at, t.settled_by,
	t.created_at, t.updated_at
`

// transientErr tags lock and serialization failures so callers can retry.
func transientErr(op string, err error) error {
	if database.IsTransient(err) {
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrTransient, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO transactions (client_id, type, campaign, date, paid, paid_at, settled_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		tx.ClientID,
		tx.Type,
		tx.Campaign,
		tx.Date,
		tx.Paid,
		tx.PaidAt,
		tx.SettledBy,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Invalid("client_id", apperr.ReasonUnknownClient)
		}

		return fmt.Errorf("creating transaction: %w", err)
	}

	if err := insertItems(ctx, dbTx, tx.ID, tx.Items); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return getTransaction(ctx, s.db, id, false)
}

func getTransaction(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE t.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	tx, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, transientErr("getting transaction", err)
	}

	if err := loadChildren(ctx, q, []*transaction.Transaction{tx}); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND t.client_id = $%d", argIdx)

		args = append(args, *filter.ClientID)
		argIdx++
	}

	if filter.ClientIDs != nil {
		query += fmt.Sprintf(" AND t.client_id = ANY($%d::uuid[])", argIdx)

		args = append(args, uuidStrings(filter.ClientIDs))
		argIdx++
	}

	if filter.Paid != nil {
		query += fmt.Sprintf(" AND t.paid = $%d", argIdx)

		args = append(args, *filter.Paid)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndBefore != nil {
		query += fmt.Sprintf(" AND t.date < $%d", argIdx)

		args = append(args, *filter.EndBefore)
	}

	query += " ORDER BY t.date ASC, t.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	if err := loadChildren(ctx, s.db, txs); err != nil {
		return nil, err
	}

	return txs, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func (s *Store) ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var ok bool

	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking client: %w", err)
	}

	return ok, nil
}

// GetPayment looks up a single payment by id.
func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*transaction.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments p WHERE p.id = $1`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrPaymentNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

// loadChildren fills Items and Payments for txs with one query each.
func loadChildren(ctx context.Context, q querier, txs []*transaction.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*transaction.Transaction, len(txs))
	ids := make([]uuid.UUID, 0, len(txs))

	for _, tx := range txs {
		byID[tx.ID] = tx
		ids = append(ids, tx.ID)
	}

	itemQuery := `
		SELECT id, transaction_id, product, unit_price, quantity, discount
		FROM transaction_items
		WHERE transaction_id = ANY($1::uuid[])
		ORDER BY transaction_id, position
	`

	rows, err := q.QueryContext(ctx, itemQuery, uuidStrings(ids))
	if err != nil {
		return transientErr("loading items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it transaction.LineItem

		var discount int

		if err := rows.Scan(&it.ID, &it.TransactionID, &it.Product, &it.UnitPrice, &it.Quantity, &discount); err != nil {
			return fmt.Errorf("scanning item: %w", err)
		}

		it.Discount = transaction.Discount(discount)

		tx := byID[it.TransactionID]
		tx.Items = append(tx.Items, it)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating items: %w", err)
	}

	paymentQuery := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		WHERE p.transaction_id = ANY($1::uuid[])
		ORDER BY p.paid_on, p.created_at`

	prows, err := q.QueryContext(ctx, paymentQuery, uuidStrings(ids))
	if err != nil {
		return transientErr("loading payments", err)
	}
	defer prows.Close()

	for prows.Next() {
		p, err := scanPayment(prows)
		if err != nil {
			return fmt.Errorf("scanning payment: %w", err)
		}

		tx := byID[p.TransactionID]
		tx.Payments = append(tx.Payments, *p)
	}

	if err := prows.Err(); err != nil {
		return fmt.Errorf("iterating payments: %w", err)
	}

	return nil
}

const selectPaymentColumns = `
	p.id, p.transaction_id, p.value, p.method, p.method_detail, p.note, p.paid_on, p.created_at
`

func scanPayment(s scanner) (*transaction.Payment, error) {
	var p transaction.Payment

	var method string

	if err := s.Scan(&p.ID, &p.TransactionID, &p.Value, &method, &p.MethodDetail, &p.Note, &p.PaidOn, &p.CreatedAt); err != nil {
		return nil, err
	}

	p.Method = transaction.PaymentMethod(method)

	return &p, nil
}

func insertItems(ctx context.Context, q querier, txID uuid.UUID, items []transaction.LineItem) error {
	query := `
		INSERT INTO transaction_items (transaction_id, position, product, unit_price, quantity, discount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range items {
		it := &items[i]
		it.TransactionID = txID

		err := q.QueryRowContext(ctx, query,
			txID, i, it.Product, it.UnitPrice, it.Quantity, int(it.Discount),
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("creating item: %w", err)
		}
	}

	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}

type ledgerTx struct {
	tx *sql.Tx
}

// BeginLedger opens a database transaction for a locked read-modify-write
// of one ledger. Waiting on a row lock longer than lock_timeout fails with a
// transient error.
func (s *Store) BeginLedger(ctx context.Context) (transaction.LedgerTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SET LOCAL lock_timeout = '5s'"); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("setting lock timeout: %w", err)
	}

	return &ledgerTx{tx: dbTx}, nil
}

func (l *ledgerTx) Commit() error {
	if err := l.tx.Commit(); err != nil {
		return transientErr("committing ledger", err)
	}

	return nil
}

func (l *ledgerTx) Rollback() error { return l.tx.Rollback() }

func (l *ledgerTx) LockTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return getTransaction(ctx, l.tx, id, true)
}

func (l *ledgerTx) SaveTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $1, campaign = $2, date = $3, paid = $4, paid_at = $5, settled_by = $6, updated_at = NOW()
		WHERE id = $7
	`

	_, err := l.tx.ExecContext(ctx, query,
		tx.Type,
		tx.Campaign,
		tx.Date,
		tx.Paid,
		tx.PaidAt,
		tx.SettledBy,
		tx.ID,
	)
	if err != nil {
		return transientErr("updating transaction", err)
	}

	return nil
}

func (l *ledgerTx) ReplaceItems(ctx context.Context, txID uuid.UUID, items []transaction.LineItem) error {
	if _, err := l.tx.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, txID); err != nil {
		return transientErr("clearing items", err)
	}

	return insertItems(ctx, l.tx, txID, items)
}

func (l *ledgerTx) CreatePayment(ctx context.Context, p *transaction.Payment) error {
	query := `
		INSERT INTO payments (transaction_id, value, method, method_detail, note, paid_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		p.TransactionID,
		p.Value,
		p.Method,
		p.MethodDetail,
		p.Note,
		p.PaidOn,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return transientErr("creating payment", err)
	}

	return nil
}

func (l *ledgerTx) DeletePayment(ctx context.Context, id uuid.UUID) error {
	res, err := l.tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return transientErr("deleting payment", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	if n == 0 {
		return transaction.ErrPaymentNotFound
	}

	return nil
}
