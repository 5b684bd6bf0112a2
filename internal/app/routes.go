package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Session
	r.HandleFunc("/api/session", deps.SessionHandler.SignIn).Methods("POST")
	r.HandleFunc("/api/session", deps.SessionHandler.SignOut).Methods("DELETE")

	// Transactions
	r.HandleFunc("/api/transactions", deps.LedgerHandler.ListTransactions).Methods("GET")
	r.HandleFunc("/api/transactions", deps.LedgerHandler.AddTransaction).Methods("POST")
	r.HandleFunc("/api/transactions/parse", deps.LedgerHandler.ParseTransaction).Methods("POST")

	// Summary
	r.HandleFunc("/api/summary", deps.LedgerHandler.GetSummary).Methods("GET")

	// Settings
	r.HandleFunc("/api/settings", deps.LedgerHandler.GetSettings).Methods("GET")
	r.HandleFunc("/api/settings/ledger-name", deps.LedgerHandler.SetLedgerName).Methods("PUT")
	r.HandleFunc("/api/settings/family-members", deps.LedgerHandler.AddFamilyMember).Methods("POST")
	r.HandleFunc("/api/settings/budget-limit", deps.LedgerHandler.SetBudgetLimit).Methods("PUT")

	// Notices
	r.HandleFunc("/api/notices", deps.NoticeHandler.Drain).Methods("GET")
}
