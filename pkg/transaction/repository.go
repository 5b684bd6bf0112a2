package transaction

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// ListByUser returns all transactions of the user, most recent first.
	ListByUser(ctx context.Context, userId int) ([]Transaction, error)
	// Insert stores the transaction and returns the id assigned by the database.
	Insert(ctx context.Context, userId int, tx Transaction) (string, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userId int) ([]Transaction, error) {
	query := `SELECT id::text, occurred_at, description, amount::text, category, kind, counterparty
				FROM transactions WHERE user_id = $1 ORDER BY occurred_at DESC, seq DESC`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	transactions := make([]Transaction, 0, 32)
	for rows.Next() {
		var (
			t            Transaction
			amount       string
			kind         string
			counterparty sql.NullString
		)
		if err := rows.Scan(&t.Id, &t.OccurredAt, &t.Description, &amount, &t.Category, &kind, &counterparty); err != nil {
			err := fmt.Errorf("error scanning transaction row: %w", err)
			log.Error(err)
			return nil, err
		}
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q stored for transaction %s: %w", amount, t.Id, err)
		}
		t.Kind = Kind(kind)
		if counterparty.Valid {
			t.Counterparty = counterparty.String
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over transaction rows: %v", err)
		return nil, err
	}
	return transactions, nil
}

func (r *RepositoryImpl) Insert(ctx context.Context, userId int, tx Transaction) (string, error) {
	query := `INSERT INTO transactions (
					user_id,
					occurred_at,
					description,
					amount,
					category,
					kind,
					is_ledger_related,
					counterparty
				) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8) RETURNING id::text`

	var counterparty sql.NullString
	if tx.IsLedgerRelated() {
		counterparty = sql.NullString{String: tx.Counterparty, Valid: true}
	}

	var id string
	err := r.db.QueryRow(ctx, query,
		userId,
		tx.OccurredAt,
		tx.Description,
		tx.Amount.String(),
		tx.Category,
		string(tx.Kind),
		tx.IsLedgerRelated(),
		counterparty,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not insert transaction: %w", err)
		log.Error(err)
		return "", err
	}
	return id, nil
}
