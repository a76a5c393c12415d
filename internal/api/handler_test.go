package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/registry"
	"chathub/internal/room"
	"chathub/internal/store"
)

func newTestHandler() (*Handler, *registry.Registry, *room.Directory, *store.Store) {
	reg := registry.New("general")
	rooms := room.NewDirectory("general")
	st := store.New(store.DefaultCapacity)
	return NewHandler(reg, rooms, st), reg, rooms, st
}

func getJSON(t *testing.T, handler http.HandlerFunc, url string, v any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestGetMessagesPagination(t *testing.T) {
	h, _, _, st := newTestHandler()
	for i := 0; i < 25; i++ {
		st.Append(store.Message{Username: "alice", Text: fmt.Sprintf("msg %d", i), Room: "general"})
	}

	var resp MessagesResponse
	getJSON(t, h.GetMessages, "/api/messages?room=general&page=2&limit=10", &resp)

	assert.Equal(t, 25, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 10, resp.Limit)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Messages, 10)
	assert.Equal(t, "msg 10", resp.Messages[0].Text)
}

func TestGetMessagesDefaults(t *testing.T) {
	h, _, _, st := newTestHandler()
	for i := 0; i < 25; i++ {
		st.Append(store.Message{Text: "x", Room: "general"})
	}

	// Non-numeric page/limit and a missing room fall back to defaults.
	var resp MessagesResponse
	getJSON(t, h.GetMessages, "/api/messages?page=abc&limit=-3", &resp)

	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Len(t, resp.Messages, 20)
	assert.True(t, resp.HasMore)
}

func TestGetMessagesUnknownRoom(t *testing.T) {
	h, _, _, _ := newTestHandler()

	var resp MessagesResponse
	getJSON(t, h.GetMessages, "/api/messages?room=nowhere", &resp)

	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Messages)
	assert.False(t, resp.HasMore)
}

func TestGetUsers(t *testing.T) {
	h, reg, _, _ := newTestHandler()
	reg.Register("c1")
	reg.Bind("c1", "alice")
	reg.Register("c2") // unbound, invisible

	var users []string
	getJSON(t, h.GetUsers, "/api/users", &users)
	assert.Equal(t, []string{"alice"}, users)
}

func TestGetRooms(t *testing.T) {
	h, _, rooms, _ := newTestHandler()
	rooms.Create("random")

	var names []string
	getJSON(t, h.GetRooms, "/api/rooms", &names)
	assert.Equal(t, []string{"general", "random"}, names)
}
