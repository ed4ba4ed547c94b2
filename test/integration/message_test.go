package integration

import (
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/test/testhelpers"

	"github.com/gorilla/websocket"
)

// joinAndDrain joins a room and consumes the join handshake frames plus any
// pending membership notifications, leaving the connection quiet.
func joinAndDrain(t *testing.T, conn *websocket.Conn, roomID, username string) {
	t.Helper()
	testhelpers.Join(t, conn, roomID, username)
	testhelpers.ExpectFrameType(t, conn, "joined")
	testhelpers.ExpectFrameType(t, conn, "user-joined")
}

// TestChatBroadcast verifies that a chat message reaches every room member
// exactly once, sender included.
func TestChatBroadcast(t *testing.T) {
	wsURL, _ := startRelay(t)

	connA := testhelpers.ConnectWebSocket(t, wsURL)
	joinAndDrain(t, connA, "lobby", "alice")

	connB := testhelpers.ConnectWebSocket(t, wsURL)
	joinAndDrain(t, connB, "lobby", "bob")
	// A sees bob's arrival.
	testhelpers.ExpectFrameType(t, connA, "user-joined")

	testhelpers.SendChat(t, connA, "hi")

	for name, conn := range map[string]*websocket.Conn{"alice": connA, "bob": connB} {
		frame := testhelpers.ExpectFrameType(t, conn, "message")
		if content, _ := frame["content"].(string); content != "hi" {
			t.Errorf("%s: expected content %q, got %v", name, "hi", frame["content"])
		}
		if username, _ := frame["username"].(string); username != "alice" {
			t.Errorf("%s: expected sender alice, got %v", name, frame["username"])
		}
		if userID, _ := frame["userId"].(string); userID == "" {
			t.Errorf("%s: expected sender userId, got none", name)
		}
	}

	// Exactly one copy each.
	testhelpers.ExpectNoFrame(t, connA, 200*time.Millisecond)
	testhelpers.ExpectNoFrame(t, connB, 200*time.Millisecond)
}

// TestRoomIsolation verifies that messages never cross room boundaries.
func TestRoomIsolation(t *testing.T) {
	wsURL, _ := startRelay(t)

	connA := testhelpers.ConnectWebSocket(t, wsURL)
	joinAndDrain(t, connA, "room-1", "alice")

	connB := testhelpers.ConnectWebSocket(t, wsURL)
	joinAndDrain(t, connB, "room-2", "bob")

	testhelpers.SendChat(t, connA, "secret")

	testhelpers.ExpectFrameType(t, connA, "message")
	testhelpers.ExpectNoFrame(t, connB, 300*time.Millisecond)
}

// TestMessageBeforeJoinIsDropped verifies that a chat message from an
// unjoined connection is a silent no-op, not an error, and that the
// connection can still join afterwards. Frames are processed in order, so if
// the early message had produced any reply it would arrive before the joined
// confirmation and fail the type check.
func TestMessageBeforeJoinIsDropped(t *testing.T) {
	wsURL, _ := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.SendChat(t, conn, "anyone there?")

	testhelpers.Join(t, conn, "lobby", "alice")
	testhelpers.ExpectFrameType(t, conn, "joined")
}

// TestEmptyMessageIsDropped verifies that empty chat content is discarded
// without a broadcast: the next frame the member sees is the following
// non-empty message, not an echo of the empty one.
func TestEmptyMessageIsDropped(t *testing.T) {
	wsURL, _ := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)
	joinAndDrain(t, conn, "lobby", "alice")

	testhelpers.SendChat(t, conn, "")
	testhelpers.SendChat(t, conn, "after the silence")

	frame := testhelpers.ExpectFrameType(t, conn, "message")
	if content, _ := frame["content"].(string); content != "after the silence" {
		t.Errorf("Expected only the non-empty message, got %v", frame["content"])
	}
}

// TestMalformedFrameGetsError verifies the malformed-input path: unparseable
// payloads and unknown frame types each get the generic error reply, only the
// offending connection sees it, and the connection survives.
func TestMalformedFrameGetsError(t *testing.T) {
	wsURL, _ := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Failed to write raw frame: %v", err)
	}
	errFrame := testhelpers.ExpectFrameType(t, conn, "error")
	if msg, _ := errFrame["message"].(string); msg != "Failed to process your message" {
		t.Errorf("Expected generic processing error, got %v", errFrame["message"])
	}

	testhelpers.SendJSON(t, conn, map[string]string{"type": "subscribe"})
	testhelpers.ExpectFrameType(t, conn, "error")

	// The handler survives malformed input; a normal join still works.
	testhelpers.Join(t, conn, "lobby", "alice")
	testhelpers.ExpectFrameType(t, conn, "joined")
}

// TestBroadcastCompleteness verifies that every member of a room receives a
// broadcast when several clients share it.
func TestBroadcastCompleteness(t *testing.T) {
	wsURL, _ := startRelay(t)

	const memberCount = 5
	conns := make([]*websocket.Conn, memberCount)
	for i := 0; i < memberCount; i++ {
		conns[i] = testhelpers.ConnectWebSocket(t, wsURL)
		testhelpers.Join(t, conns[i], "busy-room", "user")
		testhelpers.ExpectFrameType(t, conns[i], "joined")
		// Drain this member's own arrival plus earlier members' views of it.
		testhelpers.ExpectFrameType(t, conns[i], "user-joined")
		for j := 0; j < i; j++ {
			testhelpers.ExpectFrameType(t, conns[j], "user-joined")
		}
	}

	testhelpers.SendChat(t, conns[0], "fan-out")

	for i, conn := range conns {
		frame := testhelpers.ExpectFrameType(t, conn, "message")
		if content, _ := frame["content"].(string); content != "fan-out" {
			t.Errorf("Member %d: expected content %q, got %v", i, "fan-out", frame["content"])
		}
	}
}
