package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrSettingsNotFound = errors.New("settings not found")

// Stored holds the settings row as persisted. Nil fields were never written
// and fall back to the configured defaults.
type Stored struct {
	LedgerName    *string
	FamilyMembers []string
	BudgetLimit   *decimal.Decimal
}

type Repository interface {
	Get(ctx context.Context, userId int) (Stored, error)
	UpsertLedgerName(ctx context.Context, userId int, name string) error
	UpsertFamilyMembers(ctx context.Context, userId int, members []string) error
	UpsertBudgetLimit(ctx context.Context, userId int, limit decimal.Decimal) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int) (Stored, error) {
	query := `SELECT ledger_name, family_members, budget_limit::text FROM settings WHERE user_id = $1`
	var (
		ledgerName  sql.NullString
		members     []byte
		budgetLimit sql.NullString
	)
	err := r.db.QueryRow(ctx, query, userId).Scan(&ledgerName, &members, &budgetLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("no settings stored for user %d", userId)
		return Stored{}, ErrSettingsNotFound
	} else if err != nil {
		err := fmt.Errorf("could not query settings: %w", err)
		log.Error(err)
		return Stored{}, err
	}

	var stored Stored
	if ledgerName.Valid {
		stored.LedgerName = &ledgerName.String
	}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &stored.FamilyMembers); err != nil {
			return Stored{}, fmt.Errorf("invalid family members stored for user %d: %w", userId, err)
		}
	}
	if budgetLimit.Valid {
		limit, err := decimal.NewFromString(budgetLimit.String)
		if err != nil {
			return Stored{}, fmt.Errorf("invalid budget limit stored for user %d: %w", userId, err)
		}
		stored.BudgetLimit = &limit
	}
	return stored, nil
}

func (r *RepositoryImpl) UpsertLedgerName(ctx context.Context, userId int, name string) error {
	query := `INSERT INTO settings (user_id, ledger_name) VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE SET ledger_name = EXCLUDED.ledger_name`
	return r.upsert(ctx, "ledger name", query, userId, name)
}

func (r *RepositoryImpl) UpsertFamilyMembers(ctx context.Context, userId int, members []string) error {
	encoded, err := json.Marshal(members)
	if err != nil {
		return err
	}
	query := `INSERT INTO settings (user_id, family_members) VALUES ($1, $2::jsonb)
				ON CONFLICT (user_id) DO UPDATE SET family_members = EXCLUDED.family_members`
	return r.upsert(ctx, "family members", query, userId, string(encoded))
}

func (r *RepositoryImpl) UpsertBudgetLimit(ctx context.Context, userId int, limit decimal.Decimal) error {
	query := `INSERT INTO settings (user_id, budget_limit) VALUES ($1, $2::numeric)
				ON CONFLICT (user_id) DO UPDATE SET budget_limit = EXCLUDED.budget_limit`
	return r.upsert(ctx, "budget limit", query, userId, limit.String())
}

func (r *RepositoryImpl) upsert(ctx context.Context, field string, query string, userId int, value any) error {
	if _, err := r.db.Exec(ctx, query, userId, value); err != nil {
		err := fmt.Errorf("could not update %s: %w", field, err)
		log.Error(err)
		return err
	}
	return nil
}
