package transaction

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/famledger/famledger/internal/test_utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *test_utils.TestDB

func TestMain(m *testing.M) {
	os.Exit(test_utils.RunWithDB(m, &testDB))
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, int) {
	test_utils.RequireDB(t, testDB)
	pool := testDB.Open(t)
	return context.Background(), NewRepository(pool), test_utils.CreateUser(t, pool, "alice")
}

func TestRepositoryImpl_Insert(t *testing.T) {
	t.Run("should round trip a ledger loan", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		occurredAt := time.Date(2026, time.October, 3, 18, 30, 0, 0, time.UTC)
		tx := Transaction{
			OccurredAt:   occurredAt,
			Description:  "gas money",
			Amount:       decimal.RequireFromString("50.25"),
			Category:     DefaultCategory,
			Kind:         LedgerLoan,
			Counterparty: "Alex",
		}

		// when
		id, err := repo.Insert(ctx, userId, tx)

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		stored, err := repo.ListByUser(ctx, userId)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, id, stored[0].Id)
		assert.True(t, occurredAt.Equal(stored[0].OccurredAt))
		assert.Equal(t, "gas money", stored[0].Description)
		assert.True(t, tx.Amount.Equal(stored[0].Amount))
		assert.Equal(t, LedgerLoan, stored[0].Kind)
		assert.Equal(t, "Alex", stored[0].Counterparty)
		assert.True(t, stored[0].IsLedgerRelated())
	})

	t.Run("should keep every decimal place of the amount", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		amount := decimal.RequireFromString("10.005")

		// when
		_, err := repo.Insert(ctx, userId, Transaction{
			OccurredAt: time.Now(), Description: "gas", Amount: amount, Category: DefaultCategory, Kind: Expense,
		})

		// then
		require.NoError(t, err)
		stored, err := repo.ListByUser(ctx, userId)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.True(t, amount.Equal(stored[0].Amount), "stored %s", stored[0].Amount)
	})

	t.Run("should not store a counterparty for an expense", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)

		_, err := repo.Insert(ctx, userId, Transaction{
			OccurredAt: time.Now(), Description: "pizza", Amount: decimal.NewFromInt(20),
			Category: "Food", Kind: Expense, Counterparty: "Alex",
		})

		require.NoError(t, err)
		stored, err := repo.ListByUser(ctx, userId)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Empty(t, stored[0].Counterparty)
	})

	t.Run("should reject a non positive amount", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)

		_, err := repo.Insert(ctx, userId, Transaction{
			OccurredAt: time.Now(), Description: "refund", Amount: decimal.NewFromInt(-1),
			Category: DefaultCategory, Kind: Income,
		})

		assert.Error(t, err)
	})
}

func TestRepositoryImpl_ListByUser(t *testing.T) {
	t.Run("should list most recent first and only for the user", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		otherId := test_utils.CreateUser(t, repo.db, "bob")
		base := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
		for i, description := range []string{"first", "second", "third"} {
			_, err := repo.Insert(ctx, userId, Transaction{
				OccurredAt: base.Add(time.Duration(i) * time.Hour), Description: description,
				Amount: decimal.NewFromInt(int64(i + 1)), Category: DefaultCategory, Kind: Expense,
			})
			require.NoError(t, err)
		}
		_, err := repo.Insert(ctx, otherId, Transaction{
			OccurredAt: base, Description: "not mine", Amount: decimal.NewFromInt(9), Category: DefaultCategory, Kind: Income,
		})
		require.NoError(t, err)

		// when
		stored, err := repo.ListByUser(ctx, userId)

		// then
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, "third", stored[0].Description)
		assert.Equal(t, "second", stored[1].Description)
		assert.Equal(t, "first", stored[2].Description)
	})

	t.Run("should return an empty list for a user without transactions", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)

		stored, err := repo.ListByUser(ctx, userId)

		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}
