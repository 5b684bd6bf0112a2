package notice

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/famledger/famledger/pkg/user"
	log "github.com/sirupsen/logrus"
)

type NoticeDTO struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Handler struct {
	inbox *Inbox
}

func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// Drain godoc
// @Summary Pending notices
// @Description Returns and clears the notices raised for the current user
// @Tags Notice
// @Produce json
// @Success 200 {array} NoticeDTO
// @Failure 403 {string} string "User not found"
// @Router /api/notices [get]
// @Security XUserId
func (h *Handler) Drain(w http.ResponseWriter, r *http.Request) {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	notices := h.inbox.Drain(currentUser.Uid)
	dtos := make([]NoticeDTO, 0, len(notices))
	for _, n := range notices {
		dtos = append(dtos, NoticeDTO{Level: n.Level, Message: n.Message, At: n.At})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		log.Errorf("failed to encode notices: %v", err)
	}
}
