package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ticketdb/pkg/logger"
	"ticketdb/pkg/models"
	"ticketdb/pkg/store"
	"ticketdb/pkg/tickets"
	"ticketdb/pkg/utils"
	"ticketdb/pkg/validation"
)

// ticketHandlers binds HTTP to the ticket engine.
type ticketHandlers struct {
	svc *tickets.Service
}

// RegisterTickets registers HTTP handlers for ticket endpoints. The fixed
// paths (authors, channels, flag, close, open) are registered before the
// {id} routes so they are never captured as ids.
func RegisterTickets(r *mux.Router, svc *tickets.Service) {
	h := &ticketHandlers{svc: svc}

	r.HandleFunc("/tickets", h.list).Methods(http.MethodGet)
	r.HandleFunc("/tickets", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/tickets/authors", h.authors).Methods(http.MethodGet)
	r.HandleFunc("/tickets/channels", h.channels).Methods(http.MethodGet)
	r.HandleFunc("/tickets/flag", h.flag).Methods(http.MethodPatch)
	r.HandleFunc("/tickets/close", h.close).Methods(http.MethodPatch)
	r.HandleFunc("/tickets/open", h.open).Methods(http.MethodPatch)
	r.HandleFunc("/tickets/{id}", h.detail).Methods(http.MethodGet)
	r.HandleFunc("/tickets/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/tickets/{id}/resolve", h.resolve).Methods(http.MethodPost)
}

// writeTicketErr maps engine error kinds to HTTP statuses.
func writeTicketErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tickets.ErrInvalidInput):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "not found")
	default:
		logger.Error("ticket_request_failed", "path", r.URL.Path, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *ticketHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 1
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	size := 10
	if v := q.Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			size = n
		}
	}
	f := tickets.Filter{
		Author:  q.Get("author"),
		Channel: q.Get("channel"),
		Status:  q.Get("status"),
		Query:   q.Get("query"),
	}
	if v := q.Get("flagged"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "flagged must be a boolean")
			return
		}
		f.Flagged = &b
	}

	pageOut, err := h.svc.List(r.Context(), f, page, size)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	if pageOut.Data == nil {
		pageOut.Data = []models.TicketView{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, pageOut)
}

func (h *ticketHandlers) detail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, d)
}

func (h *ticketHandlers) authors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.DistinctAuthors(r.Context())
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, authors)
}

func (h *ticketHandlers) channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.svc.DistinctChannels(r.Context())
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	if channels == nil {
		channels = []string{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, channels)
}

type idListRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

func (h *ticketHandlers) flag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TicketIDs []string `json:"ticket_ids"`
		Flagged   *bool    `json:"flagged"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Flagged == nil {
		utils.JSONError(w, http.StatusBadRequest, "flagged is required")
		return
	}
	res, err := h.svc.SetFlag(r.Context(), req.TicketIDs, *req.Flagged)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

func (h *ticketHandlers) close(w http.ResponseWriter, r *http.Request) {
	h.bulkStatus(w, r, h.svc.Close)
}

func (h *ticketHandlers) open(w http.ResponseWriter, r *http.Request) {
	h.bulkStatus(w, r, h.svc.Open)
}

func (h *ticketHandlers) bulkStatus(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, ids []string) (store.BulkResult, error)) {
	var req idListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := op(r.Context(), req.TicketIDs)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

func (h *ticketHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req models.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateResolve(req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Resolve(r.Context(), id, req)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

func (h *ticketHandlers) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		ID            string `json:"_id"`
		ModifiedCount int64  `json:"modified_count"`
	}{ID: id, ModifiedCount: res.ModifiedCount})
}

func (h *ticketHandlers) delete(w http.ResponseWriter, r *http.Request) {
	var req idListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	n, err := h.svc.Delete(r.Context(), req.TicketIDs)
	if err != nil {
		writeTicketErr(w, r, err)
		return
	}
	if n == 0 {
		utils.JSONError(w, http.StatusNotFound, "no tickets matched")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		DeletedCount int64 `json:"deleted_count"`
	}{DeletedCount: n})
}
