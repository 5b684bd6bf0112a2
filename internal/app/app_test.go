package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/pkg/ledger"
	"github.com/famledger/famledger/pkg/notice"
	"github.com/famledger/famledger/pkg/session"
	"github.com/famledger/famledger/pkg/settings"
	"github.com/famledger/famledger/pkg/transaction"
	"github.com/famledger/famledger/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLedgerConfig = config.Ledger{
	BudgetLimit:         "2000",
	LedgerName:          "Dad",
	FamilyMembers:       []string{"Alex", "Sarah", "Mom", "Dad"},
	CounterpartyDefault: "first_member",
}

type testServer struct {
	server *httptest.Server
	txRepo *transaction.RepositoryStub
}

func startTestServer(t *testing.T) testServer {
	t.Helper()
	txRepo := transaction.NewRepositoryStub()
	deps, err := BuildDependencies(context.Background(), Repositories{
		Users:        user.NewStubUserRepository(),
		Transactions: txRepo,
		Settings:     settings.NewRepositoryStub(),
	}, config.Application{Ledger: testLedgerConfig})
	require.NoError(t, err)
	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(func() {
		server.Close()
		deps.Inbox.Close()
	})
	return testServer{server: server, txRepo: txRepo}
}

func (s testServer) do(t *testing.T, method, path, uid, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if uid != "" {
		req.Header.Set(userIdHeader, uid)
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLedgerDefaults(t *testing.T) {
	t.Run("should convert the ledger configuration", func(t *testing.T) {
		defaults, err := LedgerDefaults(testLedgerConfig)

		require.NoError(t, err)
		assert.Equal(t, "2000", defaults.BudgetLimit.String())
		assert.Equal(t, "Dad", defaults.LedgerName)
		assert.Equal(t, ledger.CounterpartyFirstMember, defaults.CounterpartyDefault)
	})

	t.Run("should reject a bad budget limit", func(t *testing.T) {
		for _, limit := range []string{"lots", "0", "-10"} {
			cfg := testLedgerConfig
			cfg.BudgetLimit = limit
			_, err := LedgerDefaults(cfg)
			assert.Error(t, err, limit)
		}
	})

	t.Run("should reject an unknown counterparty policy", func(t *testing.T) {
		cfg := testLedgerConfig
		cfg.CounterpartyDefault = "nobody"
		_, err := LedgerDefaults(cfg)
		assert.Error(t, err)
	})
}

func TestApplication(t *testing.T) {
	t.Run("should keep a confirmed loan in the ledger", func(t *testing.T) {
		// given
		s := startTestServer(t)
		signIn := s.do(t, http.MethodPost, "/api/session", "alice", "")
		require.Equal(t, http.StatusOK, signIn.StatusCode)

		// when
		added := s.do(t, http.MethodPost, "/api/transactions?wait=true", "alice",
			`{"description":"gas money","amount":50,"type":"ledger_loan"}`)

		// then
		require.Equal(t, http.StatusCreated, added.StatusCode)
		tx := decode[ledger.TransactionDTO](t, added)
		assert.Equal(t, "Alex", tx.Counterparty)

		summary := decode[ledger.SummaryDTO](t, s.do(t, http.MethodGet, "/api/summary", "alice", ""))
		assert.Equal(t, "50", summary.TotalOwedToLedgerOwner.String())
		assert.Equal(t, "2000", summary.RemainingBudget.String())

		ledgerTxs := decode[[]ledger.TransactionDTO](t, s.do(t, http.MethodGet, "/api/transactions?ledger=true", "alice", ""))
		require.Len(t, ledgerTxs, 1)
		assert.Equal(t, tx.Id, ledgerTxs[0].Id)
	})

	t.Run("should raise a notice when storage fails", func(t *testing.T) {
		// given
		s := startTestServer(t)
		s.do(t, http.MethodPost, "/api/session", "alice", "")
		s.txRepo.FailInserts(errors.New("connection reset"))

		// when
		added := s.do(t, http.MethodPost, "/api/transactions", "alice",
			`{"description":"pizza","amount":20,"type":"expense"}`)

		// then
		require.Contains(t, []int{http.StatusAccepted, http.StatusBadGateway}, added.StatusCode)
		var notices []notice.NoticeDTO
		require.Eventually(t, func() bool {
			resp := s.do(t, http.MethodGet, "/api/notices", "alice", "")
			notices = append(notices, decode[[]notice.NoticeDTO](t, resp)...)
			return len(notices) > 0
		}, 5*time.Second, 10*time.Millisecond)
		require.Len(t, notices, 1)
		assert.Contains(t, notices[0].Message, "connection reset")

		txs := decode[[]ledger.TransactionDTO](t, s.do(t, http.MethodGet, "/api/transactions", "alice", ""))
		assert.Empty(t, txs)
	})

	t.Run("should refuse natural language input without a parser", func(t *testing.T) {
		s := startTestServer(t)
		s.do(t, http.MethodPost, "/api/session", "alice", "")

		resp := s.do(t, http.MethodPost, "/api/transactions/parse", "alice", `{"text":"lent Alex 20"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("should require a session", func(t *testing.T) {
		s := startTestServer(t)

		resp := s.do(t, http.MethodGet, "/api/transactions", "alice", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("should forbid anonymous requests", func(t *testing.T) {
		s := startTestServer(t)

		resp := s.do(t, http.MethodPost, "/api/session", "", "")

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("should end the session on sign out", func(t *testing.T) {
		s := startTestServer(t)
		s.do(t, http.MethodPost, "/api/session", "alice", "")

		signOut := s.do(t, http.MethodDelete, "/api/session", "alice", "")
		again := s.do(t, http.MethodDelete, "/api/session", "alice", "")

		assert.Equal(t, http.StatusNoContent, signOut.StatusCode)
		assert.Equal(t, http.StatusNotFound, again.StatusCode)
		assert.Equal(t, session.ErrNoSession.Error()+"\n", readAll(t, again))
	})
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var b strings.Builder
	_, err := b.ReadFrom(resp.Body)
	require.NoError(t, err)
	return b.String()
}
