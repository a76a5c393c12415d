package hub

import "encoding/json"

// Inbound event types sent by clients.
const (
	EventUserJoin       = "user_join"
	EventSendMessage    = "send_message"
	EventPrivateMessage = "private_message"
	EventJoinRoom       = "join_room"
	EventCreateRoom     = "create_room"
	EventSendFile       = "send_file"
	EventAddReaction    = "add_reaction"
	EventMarkAsRead     = "mark_as_read"
	EventTyping         = "typing"
)

// Outbound event types sent to clients.
const (
	EventUserList       = "user_list"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventReceiveMessage = "receive_message"
	EventTypingUsers    = "typing_users"
	EventMessageUpdated = "message_updated"
	EventRoomList       = "room_list"
	EventMessageAck     = "message_ack"
)

// Envelope is the wire format for every event in both directions:
// a type tag plus a type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads. Missing fields degrade to defaults in the dispatcher
// rather than rejecting the event.

type joinPayload struct {
	Username string `json:"username"`
}

type sendMessagePayload struct {
	Message string `json:"message"`
	Room    string `json:"room,omitempty"`
}

type privateMessagePayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type filePayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type reactionPayload struct {
	MessageID int64  `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type readPayload struct {
	MessageID int64 `json:"messageId"`
}

type typingPayload struct {
	Typing bool `json:"typing"`
}

// Outbound payloads.

type userEvent struct {
	Username string `json:"username"`
}

type ackEvent struct {
	MessageID int64 `json:"messageId"`
}

// encode marshals an outbound event into its wire envelope. Payloads are
// plain structs and slices, so marshaling cannot realistically fail; a nil
// slice is returned on the off chance it does, and sendTo ignores it.
func encode(eventType string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	raw, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		return nil
	}
	return raw
}
