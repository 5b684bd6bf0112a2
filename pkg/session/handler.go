package session

import (
	"encoding/json"
	"net/http"

	"github.com/famledger/famledger/pkg/user"
	log "github.com/sirupsen/logrus"
)

type SessionDTO struct {
	Uid              string `json:"uid"`
	DisplayName      string `json:"displayName"`
	TransactionCount int    `json:"transactionCount"`
}

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// SignIn godoc
// @Summary Start a ledger session
// @Description Creates the session of the current user and loads its ledger
// @Tags Session
// @Produce json
// @Success 200 {object} SessionDTO
// @Failure 403 {string} string "User not found"
// @Router /api/session [post]
// @Security XUserId
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	manager := h.registry.SignIn(r.Context(), currentUser)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	dto := SessionDTO{
		Uid:              currentUser.Uid,
		DisplayName:      currentUser.DisplayName,
		TransactionCount: len(manager.Transactions()),
	}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		log.Errorf("failed to encode session: %v", err)
	}
}

// SignOut godoc
// @Summary End the ledger session
// @Tags Session
// @Success 204
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "No active session"
// @Router /api/session [delete]
// @Security XUserId
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if !h.registry.SignOut(currentUser.Uid) {
		http.Error(w, ErrNoSession.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
