// Package hub routes inbound client events to the registries and fans the
// resulting outbound events out to an explicitly computed audience: one
// connection, a room's members, or every connection.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chathub/internal/registry"
	"chathub/internal/room"
	"chathub/internal/store"
)

// inboundFrame pairs a raw client event with the connection that sent it.
type inboundFrame struct {
	client *Client
	data   []byte
}

// Hub is the central router. Its run loop is the only goroutine that
// touches the clients map, so fan-out never races registration. The
// registries carry their own locks because the REST surface reads them
// concurrently with this loop.
type Hub struct {
	registry *registry.Registry
	rooms    *room.Directory
	store    *store.Store

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Hub wired to the given registries.
func New(reg *registry.Registry, rooms *room.Directory, st *store.Store) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   reg,
		rooms:      rooms,
		store:      st,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It must run in its own goroutine and is the
// single writer for connection lifecycle and event routing.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeClients()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case frame := <-h.inbound:
			h.dispatch(frame.client, frame.data)
		}
	}
}

// Shutdown stops the run loop and closes every client connection. It
// returns once the loop has exited or the timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// addClient indexes the connection and replays recent default-room history
// plus the room and user lists to the newcomer. The replay runs inside the
// loop so it can never race a close of the send channel.
func (h *Hub) addClient(c *Client) {
	h.clients[c.id] = c
	h.registry.Register(c.id)
	h.rooms.Join(c.id, h.rooms.DefaultRoom())

	self := []string{c.id}
	msgs, _, _ := h.store.Page(h.rooms.DefaultRoom(), store.DefaultPage, store.DefaultLimit)
	for _, msg := range msgs {
		h.sendTo(self, encode(EventReceiveMessage, msg))
	}
	h.sendTo(self, encode(EventRoomList, h.rooms.Rooms()))
	h.sendTo(self, encode(EventUserList, h.registry.Presence()))
}

// removeClient tears down a connection from every index and announces the
// departure. Safe to call twice; the second call is a no-op.
func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	username := h.registry.Lookup(c.id)
	bound := username != registry.AnonymousName

	delete(h.clients, c.id)
	h.registry.Unregister(c.id)
	h.rooms.LeaveAll(c.id)
	close(c.send)

	h.broadcastAll(encode(EventUserList, h.registry.Presence()))
	h.broadcastAll(encode(EventTypingUsers, h.registry.TypingUsers()))
	if bound {
		h.broadcastAll(encode(EventUserLeft, userEvent{Username: username}))
	}
}

// dispatch decodes the typed event envelope and applies the routing rules.
// Malformed events are logged and dropped; they never take down the loop
// or affect other connections.
func (h *Hub) dispatch(c *Client, data []byte) {
	if _, ok := h.clients[c.id]; !ok {
		// The sender disconnected while this frame was queued.
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("dropping malformed frame from %s: %v", c.id, err)
		return
	}

	switch env.Type {
	case EventUserJoin:
		h.handleUserJoin(c, env.Data)
	case EventSendMessage:
		h.handleSendMessage(c, env.Data)
	case EventPrivateMessage:
		h.handlePrivateMessage(c, env.Data)
	case EventJoinRoom:
		h.handleJoinRoom(c, env.Data)
	case EventCreateRoom:
		h.handleCreateRoom(c, env.Data)
	case EventSendFile:
		h.handleSendFile(c, env.Data)
	case EventAddReaction:
		h.handleAddReaction(c, env.Data)
	case EventMarkAsRead:
		h.handleMarkAsRead(c, env.Data)
	case EventTyping:
		h.handleTyping(c, env.Data)
	default:
		log.Printf("dropping unknown event %q from %s", env.Type, c.id)
	}
}

func (h *Hub) handleUserJoin(c *Client, data json.RawMessage) {
	var payload joinPayload
	decode(data, &payload)
	if payload.Username != "" {
		h.registry.Bind(c.id, payload.Username)
	}
	h.broadcastAll(encode(EventUserList, h.registry.Presence()))
	h.broadcastAll(encode(EventUserJoined, userEvent{Username: h.registry.Lookup(c.id)}))
	h.sendTo([]string{c.id}, encode(EventRoomList, h.rooms.Rooms()))
}

func (h *Hub) handleSendMessage(c *Client, data json.RawMessage) {
	var payload sendMessagePayload
	decode(data, &payload)
	roomName := payload.Room
	if roomName == "" {
		roomName = h.registry.Room(c.id)
	}

	msg := h.store.Append(store.Message{
		Username:  h.registry.Lookup(c.id),
		SenderID:  c.id,
		Text:      payload.Message,
		Room:      roomName,
		Delivered: true,
	})

	h.sendTo(h.rooms.Members(roomName), encode(EventReceiveMessage, msg))
	h.sendTo([]string{c.id}, encode(EventMessageAck, ackEvent{MessageID: msg.ID}))
}

func (h *Hub) handlePrivateMessage(c *Client, data json.RawMessage) {
	var payload privateMessagePayload
	decode(data, &payload)

	// Same message shape as the room events, but never appended to the
	// store: private messages live only on the wire.
	event := encode(EventPrivateMessage, store.Message{
		Username:  h.registry.Lookup(c.id),
		SenderID:  c.id,
		Text:      payload.Message,
		Timestamp: time.Now(),
		Reactions: []store.Reaction{},
		ReadBy:    []string{},
		Private:   true,
		To:        payload.To,
	})

	// The audience is the target's connections plus the sender's own.
	audience := append(h.registry.FindByUsername(payload.To), c.id)
	h.sendTo(audience, event)
}

func (h *Hub) handleJoinRoom(c *Client, data json.RawMessage) {
	var payload roomPayload
	decode(data, &payload)
	roomName := payload.Room
	if roomName == "" {
		roomName = h.rooms.DefaultRoom()
	}
	h.rooms.Join(c.id, roomName)
	h.registry.SetRoom(c.id, roomName)
}

func (h *Hub) handleCreateRoom(c *Client, data json.RawMessage) {
	var payload roomPayload
	decode(data, &payload)
	if payload.Room == "" {
		return
	}
	if h.rooms.Create(payload.Room) {
		h.broadcastAll(encode(EventRoomList, h.rooms.Rooms()))
	}
}

func (h *Hub) handleSendFile(c *Client, data json.RawMessage) {
	var payload filePayload
	decode(data, &payload)
	if payload.URL == "" {
		// The upload bridge never produced a URL; nothing to share.
		return
	}
	roomName := h.registry.Room(c.id)

	msg := h.store.Append(store.Message{
		Username: h.registry.Lookup(c.id),
		SenderID: c.id,
		Room:     roomName,
		File: &store.FileMeta{
			Name: payload.Name,
			Type: payload.Type,
			Size: payload.Size,
			URL:  payload.URL,
		},
		Delivered: true,
	})

	h.sendTo(h.rooms.Members(roomName), encode(EventReceiveMessage, msg))
}

func (h *Hub) handleAddReaction(c *Client, data json.RawMessage) {
	var payload reactionPayload
	decode(data, &payload)
	if payload.Emoji == "" {
		return
	}
	msg, ok := h.store.AddReaction(payload.MessageID, payload.Emoji)
	if !ok {
		return
	}
	h.sendTo(h.rooms.Members(msg.Room), encode(EventMessageUpdated, msg))
}

func (h *Hub) handleMarkAsRead(c *Client, data json.RawMessage) {
	var payload readPayload
	decode(data, &payload)
	msg, changed, ok := h.store.MarkRead(payload.MessageID, c.id)
	if !ok || !changed {
		return
	}
	h.sendTo(h.rooms.Members(msg.Room), encode(EventMessageUpdated, msg))
}

func (h *Hub) handleTyping(c *Client, data json.RawMessage) {
	var payload typingPayload
	decode(data, &payload)
	typing := h.registry.SetTyping(c.id, payload.Typing)
	h.broadcastAll(encode(EventTypingUsers, typing))
}

// sendTo delivers event to each id that still has a live client. An id
// missing from the client map is skipped: the connection vanished between
// audience computation and delivery. A client whose send buffer is full is
// dropped with the same teardown as a disconnect.
func (h *Hub) sendTo(ids []string, event []byte) {
	if event == nil {
		return
	}
	var stalled []*Client
	for _, id := range ids {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case c.send <- event:
		default:
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		log.Printf("dropping client %s: send buffer full", c.id)
		h.removeClient(c)
	}
}

func (h *Hub) broadcastAll(event []byte) {
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.sendTo(ids, event)
}

func (h *Hub) closeClients() {
	for id, c := range h.clients {
		delete(h.clients, id)
		h.registry.Unregister(id)
		h.rooms.LeaveAll(id)
		close(c.send)
	}
}

// decode tolerates absent or malformed payloads: fields keep their zero
// values and the handler's defaults take over.
func decode(data json.RawMessage, v any) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("malformed event payload: %v", err)
	}
}
