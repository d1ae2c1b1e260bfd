// Package admin serves the staff back office as a JSON API.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/service"
	"github.com/mmynk/partyplanner/internal/storage"
)

// Handler routes /admin requests to the admin service. Authentication and
// the staff check are applied by the caller.
type Handler struct {
	svc    *service.AdminService
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates the admin API handler.
func NewHandler(svc *service.AdminService, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /admin/parties", h.listParties)
	h.mux.HandleFunc("POST /admin/parties", h.createParty)
	h.mux.HandleFunc("POST /admin/parties/mark-past", h.markPast)
	h.mux.HandleFunc("GET /admin/parties/{id}", h.getParty)
	h.mux.HandleFunc("PUT /admin/parties/{id}", h.updateParty)
	h.mux.HandleFunc("PATCH /admin/parties/{id}", h.patchParty)
	h.mux.HandleFunc("DELETE /admin/parties/{id}", h.deleteParty)

	h.mux.HandleFunc("GET /admin/participants", h.listParticipants)
	h.mux.HandleFunc("POST /admin/participants", h.createParticipant)
	h.mux.HandleFunc("GET /admin/participants/{id}", h.getParticipant)
	h.mux.HandleFunc("PUT /admin/participants/{id}", h.updateParticipant)
	h.mux.HandleFunc("DELETE /admin/participants/{id}", h.deleteParticipant)

	h.mux.HandleFunc("GET /admin/items", h.listItems)
	h.mux.HandleFunc("POST /admin/items", h.createItem)
	h.mux.HandleFunc("GET /admin/items/{id}", h.getItem)
	h.mux.HandleFunc("PUT /admin/items/{id}", h.updateItem)
	h.mux.HandleFunc("PATCH /admin/items/{id}", h.patchItem)
	h.mux.HandleFunc("DELETE /admin/items/{id}", h.deleteItem)

	h.mux.HandleFunc("GET /admin/users", h.listUsers)
	h.mux.HandleFunc("GET /admin/users/{id}", h.getUser)
	h.mux.HandleFunc("PATCH /admin/users/{id}", h.patchUser)
	h.mux.HandleFunc("DELETE /admin/users/{id}", h.deleteUser)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error      string   `json:"error"`
	Field      string   `json:"field,omitempty"`
	Dependents []string `json:"dependents,omitempty"`
}

// fail maps a service error to a status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError
	var rie *storage.ReferentialIntegrityError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &rie):
		writeJSON(w, http.StatusConflict, errorBody{Error: rie.Error(), Dependents: rie.Dependents})
	case storage.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		h.logger.Error("Admin request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &models.ValidationError{Field: "page", Message: "must be a positive integer"}
	}
	return n, nil
}

// parseStatus accepts either the stored code or the label.
func parseStatus(raw string) models.Status {
	for _, s := range []models.Status{models.StatusUpcoming, models.StatusOngoing, models.StatusPast} {
		if strings.EqualFold(raw, string(s)) || strings.EqualFold(raw, s.Label()) {
			return s
		}
	}
	return models.Status(raw)
}

// Parties

func (h *Handler) listParties(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	expired, _ := strconv.ParseBool(q.Get("expired"))
	result, err := h.svc.ListParties(r.Context(), service.PartyQuery{
		Search:    q.Get("q"),
		Status:    parseStatus(q.Get("status")),
		Theme:     models.Theme(q.Get("theme")),
		StartFrom: q.Get("start_from"),
		StartTo:   q.Get("start_to"),
		Expired:   expired,
		Page:      page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(result, newPartyView))
}

func (h *Handler) getParty(w http.ResponseWriter, r *http.Request) {
	party, err := h.svc.GetParty(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPartyView(party))
}

func (h *Handler) createParty(w http.ResponseWriter, r *http.Request) {
	var in service.PartyInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	party, err := h.svc.CreateParty(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPartyView(party))
}

func (h *Handler) updateParty(w http.ResponseWriter, r *http.Request) {
	var in service.PartyInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	party, err := h.svc.UpdateParty(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPartyView(party))
}

func (h *Handler) patchParty(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Theme models.Theme `json:"theme"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	party, err := h.svc.SetPartyTheme(r.Context(), r.PathValue("id"), in.Theme)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPartyView(party))
}

func (h *Handler) deleteParty(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteParty(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markPast(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []string `json:"ids"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.svc.MarkPast(r.Context(), in.IDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	noun := "parties were"
	if n == 1 {
		noun = "party was"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated": n,
		"message": fmt.Sprintf("%d %s successfully marked as past.", n, noun),
	})
}

// Participants

func participantRowView(row service.ParticipantRow) participantView {
	v := newParticipantView(row.Participant)
	v.Share = row.Share.StringFixed(2)
	return v
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.ListParticipants(r.Context(), r.URL.Query().Get("party"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(result, participantRowView))
}

func (h *Handler) getParticipant(w http.ResponseWriter, r *http.Request) {
	participant, err := h.svc.GetParticipant(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipantView(participant))
}

func (h *Handler) createParticipant(w http.ResponseWriter, r *http.Request) {
	var in service.ParticipantInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	participant, err := h.svc.CreateParticipant(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newParticipantView(participant))
}

func (h *Handler) updateParticipant(w http.ResponseWriter, r *http.Request) {
	var in service.ParticipantInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	participant, err := h.svc.UpdateParticipant(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipantView(participant))
}

func (h *Handler) deleteParticipant(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteParticipant(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Items

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	result, err := h.svc.ListItems(r.Context(), q.Get("party"), storage.ItemSort(q.Get("sort")), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(result, newItemView))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemView(item))
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.CreateItem(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newItemView(item))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemView(item))
}

func (h *Handler) patchItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemPatch
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.PatchItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemView(item))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Users

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.ListUsers(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(result, newUserView))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handler) patchUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsStaff *bool `json:"is_staff"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.IsStaff == nil {
		h.fail(w, r, &models.ValidationError{Field: "is_staff", Message: "this field is required"})
		return
	}
	user, err := h.svc.SetStaff(r.Context(), r.PathValue("id"), *in.IsStaff)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
