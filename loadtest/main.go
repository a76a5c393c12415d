package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WSURL     = "ws://localhost:8080/ws"
	UserCount = 200 // ⚠️ Start small. Raise once the server holds steady.
	MsgCount  = 20  // Messages per user
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each...", UserCount, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < UserCount; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			runUser(userID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runUser(userID int) {
	username := fmt.Sprintf("load_user_%d", userID)

	conn, _, err := websocket.DefaultDialer.Dial(WSURL, nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", username, err)
		return
	}
	defer conn.Close()

	// Drain server pushes so the read buffer never backs up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := send(conn, "user_join", map[string]string{"username": username}); err != nil {
		log.Printf("❌ Join Fail [%s]: %v", username, err)
		return
	}

	for i := 0; i < MsgCount; i++ {
		payload := map[string]string{
			"message": fmt.Sprintf("LoadTest Msg %d from %s", i, username),
		}
		if err := send(conn, "send_message", payload); err != nil {
			log.Printf("❌ Send Fail [%s]: %v", username, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", username, MsgCount)
}

func send(conn *websocket.Conn, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope{Type: eventType, Data: data})
}
