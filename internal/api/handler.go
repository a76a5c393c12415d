// Package api exposes the read-only query surface over the chat state:
// paginated room history, the presence list, and the room list.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"chathub/internal/registry"
	"chathub/internal/room"
	"chathub/internal/store"
)

// Handler serves the REST endpoints backed by the in-memory registries.
type Handler struct {
	registry *registry.Registry
	rooms    *room.Directory
	store    *store.Store
}

// NewHandler creates a Handler reading from the given registries.
func NewHandler(reg *registry.Registry, rooms *room.Directory, st *store.Store) *Handler {
	return &Handler{registry: reg, rooms: rooms, store: st}
}

// MessagesResponse is the payload for GET /api/messages.
type MessagesResponse struct {
	Messages []store.Message `json:"messages"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	HasMore  bool            `json:"hasMore"`
}

// GetMessages returns one page of a room's history. Absent or non-numeric
// page/limit parameters fall back to 1/20; an unknown room yields an empty
// page, never an error.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	roomName := query.Get("room")
	if roomName == "" {
		roomName = h.rooms.DefaultRoom()
	}
	page := parsePositive(query.Get("page"), store.DefaultPage)
	limit := parsePositive(query.Get("limit"), store.DefaultLimit)

	msgs, total, hasMore := h.store.Page(roomName, page, limit)
	writeJSON(w, MessagesResponse{
		Messages: msgs,
		Total:    total,
		Page:     page,
		Limit:    limit,
		HasMore:  hasMore,
	})
}

// GetUsers returns the current presence list.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.registry.Presence())
}

// GetRooms returns the known room names.
func (h *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.rooms.Rooms())
}

func parsePositive(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
