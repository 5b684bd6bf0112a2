package test_utils

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateUser inserts a user row and returns its id, for tables referencing users.
func CreateUser(t *testing.T, pool *pgxpool.Pool, uid string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(),
		"INSERT INTO users (uid, display_name) VALUES ($1, $1) RETURNING id", uid).Scan(&id)
	require.NoError(t, err)
	return id
}
