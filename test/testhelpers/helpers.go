// Package testhelpers provides shared utilities for testing the chat relay.
//
// It contains helpers for dialing the WebSocket endpoint, exchanging protocol
// frames, and asserting on received frames, to reduce duplication across unit
// and integration tests.
package testhelpers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// TestOrigin matches the default allowed origin in the relay configuration.
const TestOrigin = "http://localhost:8080"

// DiscardLogger returns a logger that drops everything, keeping test output
// readable.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ConnectWebSocket dials the relay's WebSocket endpoint with an allowed Origin
// header. The connection is closed automatically when the test finishes.
func ConnectWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", TestOrigin)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendJSON marshals v and sends it as a single text frame.
func SendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
}

// Join sends a join frame for the given room and username.
func Join(t *testing.T, conn *websocket.Conn, roomID, username string) {
	t.Helper()
	SendJSON(t, conn, map[string]string{
		"type":     "join",
		"roomId":   roomID,
		"username": username,
	})
}

// SendChat sends a chat message frame.
func SendChat(t *testing.T, conn *websocket.Conn, content string) {
	t.Helper()
	SendJSON(t, conn, map[string]string{
		"type":    "message",
		"content": content,
	})
}

// ReadFrame reads one JSON frame within the timeout and returns it decoded.
func ReadFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]any {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("Received unparseable frame %q: %v", raw, err)
	}
	return frame
}

// ExpectFrameType reads one frame and asserts its type discriminator.
func ExpectFrameType(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()

	frame := ReadFrame(t, conn, 2*time.Second)
	if got, _ := frame["type"].(string); got != want {
		t.Fatalf("Expected frame type %q, got %v", want, frame)
	}
	return frame
}

// ExpectNoFrame asserts that no frame arrives within the timeout. A closed
// connection also counts as silence.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no frame, but received %q", raw)
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	// Abrupt teardown while waiting for silence is acceptable too.
}

// FrameUsers extracts the users list from a membership notification as
// username strings.
func FrameUsers(t *testing.T, frame map[string]any) []string {
	t.Helper()

	raw, ok := frame["users"].([]any)
	if !ok {
		t.Fatalf("Frame has no users list: %v", frame)
	}
	usernames := make([]string, 0, len(raw))
	for _, entry := range raw {
		user, ok := entry.(map[string]any)
		if !ok {
			t.Fatalf("Malformed users entry: %v", entry)
		}
		name, _ := user["username"].(string)
		if id, _ := user["id"].(string); id == "" {
			t.Fatalf("User entry missing id: %v", entry)
		}
		usernames = append(usernames, name)
	}
	return usernames
}

// CloseWebSocket performs a clean close handshake.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
