// Package store holds the bounded in-memory message log. The log is append
// only and global across rooms: when it exceeds its capacity the oldest
// message is evicted regardless of which room it belongs to. Restarting the
// process loses everything, by design.
package store

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of messages retained when no explicit
// capacity is configured.
const DefaultCapacity = 100

// Pagination defaults applied when the caller passes zero values.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// FileMeta references a file stored by the upload bridge. The URL must
// already be durable before the message carrying it is appended.
type FileMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Reaction is one emoji entry on a message. Entries keep insertion order
// and counts only ever increase.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message is a chat message. ID, Room, Username and Timestamp are immutable
// once assigned; Reactions and ReadBy grow monotonically.
type Message struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	SenderID  string     `json:"senderId"`
	Text      string     `json:"text,omitempty"`
	File      *FileMeta  `json:"file,omitempty"`
	Room      string     `json:"room"`
	Timestamp time.Time  `json:"timestamp"`
	Reactions []Reaction `json:"reactions"`
	ReadBy    []string   `json:"readBy"`
	Delivered bool       `json:"delivered"`
	// Private messages reuse this shape on the wire but are never
	// appended to the store.
	Private bool   `json:"private"`
	To      string `json:"to,omitempty"`
}

func (m *Message) clone() Message {
	out := *m
	// make+copy rather than append: an empty slice must stay non-nil so
	// reactions and readBy serialize as [] and not null.
	out.Reactions = make([]Reaction, len(m.Reactions))
	copy(out.Reactions, m.Reactions)
	out.ReadBy = make([]string, len(m.ReadBy))
	copy(out.ReadBy, m.ReadBy)
	if m.File != nil {
		file := *m.File
		out.File = &file
	}
	return out
}

// Store is the bounded message log. All operations are atomic: append plus
// eviction happen under one lock hold, and mutations never race a
// concurrent find into a half-applied state. Returned messages are copies,
// so callers never alias store-owned state.
type Store struct {
	mu       sync.Mutex
	msgs     []*Message
	nextID   int64
	capacity int
}

// New creates a Store keeping at most capacity messages. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, nextID: 1}
}

// Append assigns the next id and the creation timestamp, inserts the
// message at the tail, and evicts the oldest message when the log exceeds
// its capacity. It returns the finalized message.
func (s *Store) Append(msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID
	s.nextID++
	msg.Timestamp = time.Now()
	if msg.Reactions == nil {
		msg.Reactions = []Reaction{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}

	stored := msg
	s.msgs = append(s.msgs, &stored)
	if len(s.msgs) > s.capacity {
		s.msgs = s.msgs[1:]
	}
	return stored.clone()
}

// Find returns a copy of the message with the given id.
func (s *Store) Find(id int64) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.findLocked(id); msg != nil {
		return msg.clone(), true
	}
	return Message{}, false
}

// AddReaction increments the count for emoji on the message, appending a
// new entry with count 1 when the emoji is new. Entries keep insertion
// order. There is no per-user dedup: the same connection reacting twice
// counts twice. Returns the updated message, or false if the id is unknown.
func (s *Store) AddReaction(id int64, emoji string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findLocked(id)
	if msg == nil {
		return Message{}, false
	}
	for i := range msg.Reactions {
		if msg.Reactions[i].Emoji == emoji {
			msg.Reactions[i].Count++
			return msg.clone(), true
		}
	}
	msg.Reactions = append(msg.Reactions, Reaction{Emoji: emoji, Count: 1})
	return msg.clone(), true
}

// MarkRead adds connID to the message's read-set. It is idempotent and a
// no-op for unknown ids. The second result reports whether the read-set
// changed, the third whether the message exists.
func (s *Store) MarkRead(id int64, connID string) (Message, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findLocked(id)
	if msg == nil {
		return Message{}, false, false
	}
	for _, reader := range msg.ReadBy {
		if reader == connID {
			return msg.clone(), false, true
		}
	}
	msg.ReadBy = append(msg.ReadBy, connID)
	return msg.clone(), true, true
}

// Page returns the page-th slice of limit messages for room, preserving
// insertion order, along with the total count of matching messages and
// whether more pages follow. Page and limit fall back to their defaults
// when non-positive.
func (s *Store) Page(roomName string, page, limit int) ([]Message, int, bool) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*Message
	for _, msg := range s.msgs {
		if msg.Room == roomName {
			matched = append(matched, msg)
		}
	}
	total := len(matched)

	start := (page - 1) * limit
	end := page * limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	out := make([]Message, 0, end-start)
	for _, msg := range matched[start:end] {
		out = append(out, msg.clone())
	}
	return out, total, page*limit < total
}

// Len returns the number of messages currently retained.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *Store) findLocked(id int64) *Message {
	for _, msg := range s.msgs {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}
