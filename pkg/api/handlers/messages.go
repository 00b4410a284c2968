package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ticketdb/pkg/logger"
	"ticketdb/pkg/models"
	"ticketdb/pkg/store"
	"ticketdb/pkg/utils"
	"ticketdb/pkg/validation"
)

// MessageStore is the store surface the messages endpoints need.
// *store.Store satisfies it.
type MessageStore interface {
	AllMessages(ctx context.Context) ([]models.Message, error)
	Message(ctx context.Context, id string) (*models.Message, error)
	InsertMessage(ctx context.Context, m *models.Message) error
	MessageChannels(ctx context.Context) ([]string, error)
}

type messageHandlers struct {
	store MessageStore
}

// RegisterMessages registers HTTP handlers for message endpoints.
func RegisterMessages(r *mux.Router, st MessageStore) {
	h := &messageHandlers{store: st}

	r.HandleFunc("/messages", h.list).Methods(http.MethodGet)
	r.HandleFunc("/messages", h.create).Methods(http.MethodPost)
	r.HandleFunc("/messages/channels", h.channels).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", h.get).Methods(http.MethodGet)
}

func (h *messageHandlers) list(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.store.AllMessages(r.Context())
	if err != nil {
		logger.Error("messages_list_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, msgs)
}

func (h *messageHandlers) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, err := h.store.Message(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "message not found")
			return
		}
		logger.Error("message_get_failed", "id", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, m)
}

func (h *messageHandlers) create(w http.ResponseWriter, r *http.Request) {
	var m models.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if m.ID == "" {
		m.ID = utils.GenMessageID()
	}
	now := time.Now().UTC()
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
	if m.TimestampInsert.IsZero() {
		m.TimestampInsert = now
	}
	if err := validation.ValidateMessage(m); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.InsertMessage(r.Context(), &m); err != nil {
		logger.Error("message_create_failed", "id", m.ID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	logger.Info("message_created", "id", m.ID, "channel", m.ChannelID)
	_ = utils.JSONWrite(w, http.StatusOK, m)
}

func (h *messageHandlers) channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.MessageChannels(r.Context())
	if err != nil {
		logger.Error("message_channels_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if channels == nil {
		channels = []string{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, channels)
}
