package settings

import (
	"context"
	"os"
	"testing"

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

func TestRepositoryImpl_Get(t *testing.T) {
	t.Run("should report missing settings", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)

		_, err := repo.Get(ctx, userId)

		assert.ErrorIs(t, err, ErrSettingsNotFound)
	})

	t.Run("should keep untouched fields empty", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		require.NoError(t, repo.UpsertLedgerName(ctx, userId, "Mom"))

		// when
		stored, err := repo.Get(ctx, userId)

		// then
		require.NoError(t, err)
		require.NotNil(t, stored.LedgerName)
		assert.Equal(t, "Mom", *stored.LedgerName)
		assert.Nil(t, stored.FamilyMembers)
		assert.Nil(t, stored.BudgetLimit)
	})
}

func TestRepositoryImpl_Upsert(t *testing.T) {
	t.Run("should keep every decimal place of the budget limit", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)
		require.NoError(t, repo.UpsertBudgetLimit(ctx, userId, decimal.RequireFromString("1999.995")))

		stored, err := repo.Get(ctx, userId)

		require.NoError(t, err)
		require.NotNil(t, stored.BudgetLimit)
		assert.Equal(t, "1999.995", stored.BudgetLimit.String())
	})

	t.Run("should update each field on its own", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		require.NoError(t, repo.UpsertLedgerName(ctx, userId, "Dad"))
		require.NoError(t, repo.UpsertFamilyMembers(ctx, userId, []string{"Alex", "Sarah"}))
		require.NoError(t, repo.UpsertBudgetLimit(ctx, userId, decimal.RequireFromString("1999.99")))

		// when
		require.NoError(t, repo.UpsertFamilyMembers(ctx, userId, []string{"Alex", "Sarah", "Grandma"}))

		// then
		stored, err := repo.Get(ctx, userId)
		require.NoError(t, err)
		assert.Equal(t, "Dad", *stored.LedgerName)
		assert.Equal(t, []string{"Alex", "Sarah", "Grandma"}, stored.FamilyMembers)
		assert.Equal(t, "1999.99", stored.BudgetLimit.String())
	})
}
