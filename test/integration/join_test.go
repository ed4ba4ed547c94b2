package integration

import (
	"testing"

	"github.com/Tyrowin/roomchat/test/testhelpers"
)

// TestJoinRoom verifies the join handshake: the joining client receives a
// joined confirmation with its assigned identity, then the membership
// notification for the room it just created.
func TestJoinRoom(t *testing.T) {
	wsURL, hub := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.Join(t, conn, "lobby", "alice")

	joined := testhelpers.ExpectFrameType(t, conn, "joined")
	if roomID, _ := joined["roomId"].(string); roomID != "lobby" {
		t.Errorf("Expected roomId %q, got %v", "lobby", joined["roomId"])
	}
	if userID, _ := joined["userId"].(string); userID == "" {
		t.Error("Expected a non-empty userId in joined confirmation")
	}
	if ts, _ := joined["timestamp"].(string); ts == "" {
		t.Error("Expected a timestamp in joined confirmation")
	}

	userJoined := testhelpers.ExpectFrameType(t, conn, "user-joined")
	users := testhelpers.FrameUsers(t, userJoined)
	if len(users) != 1 || users[0] != "alice" {
		t.Errorf("Expected member list [alice], got %v", users)
	}

	if count := hub.Registry().MemberCount("lobby"); count != 1 {
		t.Errorf("Expected 1 member in lobby, got %d", count)
	}
}

// TestSecondJoinNotifiesRoom verifies that an existing member is told about a
// new arrival and that both receive the full updated member list.
func TestSecondJoinNotifiesRoom(t *testing.T) {
	wsURL, hub := startRelay(t)

	connA := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.Join(t, connA, "lobby", "alice")
	testhelpers.ExpectFrameType(t, connA, "joined")
	testhelpers.ExpectFrameType(t, connA, "user-joined")

	connB := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.Join(t, connB, "lobby", "bob")
	testhelpers.ExpectFrameType(t, connB, "joined")

	notifyA := testhelpers.ExpectFrameType(t, connA, "user-joined")
	if username, _ := notifyA["username"].(string); username != "bob" {
		t.Errorf("Expected user-joined for bob, got %v", notifyA["username"])
	}
	usersA := testhelpers.FrameUsers(t, notifyA)
	if len(usersA) != 2 {
		t.Errorf("Expected 2 users in notification, got %v", usersA)
	}

	notifyB := testhelpers.ExpectFrameType(t, connB, "user-joined")
	usersB := testhelpers.FrameUsers(t, notifyB)
	if len(usersB) != 2 {
		t.Errorf("Expected 2 users in notification, got %v", usersB)
	}

	if count := hub.Registry().MemberCount("lobby"); count != 2 {
		t.Errorf("Expected 2 members in lobby, got %d", count)
	}
}

// TestJoinRequiresRoomID verifies that a join without a room ID is rejected
// with a specific error and no registration takes place.
func TestJoinRequiresRoomID(t *testing.T) {
	wsURL, hub := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.Join(t, conn, "", "alice")

	errFrame := testhelpers.ExpectFrameType(t, conn, "error")
	if msg, _ := errFrame["message"].(string); msg != "Room ID is required" {
		t.Errorf("Expected %q, got %v", "Room ID is required", errFrame["message"])
	}

	if count := hub.Registry().RoomCount(); count != 0 {
		t.Errorf("Expected no rooms after rejected join, got %d", count)
	}
}

// TestJoinRequiresUsername verifies that a join without a display name is
// rejected and the connection may still join afterwards.
func TestJoinRequiresUsername(t *testing.T) {
	wsURL, _ := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.Join(t, conn, "lobby", "")

	errFrame := testhelpers.ExpectFrameType(t, conn, "error")
	if msg, _ := errFrame["message"].(string); msg != "Username is required" {
		t.Errorf("Expected %q, got %v", "Username is required", errFrame["message"])
	}

	// A failed join leaves the connection unjoined, so joining again works.
	testhelpers.Join(t, conn, "lobby", "alice")
	testhelpers.ExpectFrameType(t, conn, "joined")
}

// TestRepeatedJoinIsIgnored verifies that a second join on an already-joined
// connection is dropped without a reply and without touching membership.
func TestRepeatedJoinIsIgnored(t *testing.T) {
	wsURL, hub := startRelay(t)

	conn := testhelpers.ConnectWebSocket(t, wsURL)
	testhelpers.Join(t, conn, "lobby", "alice")
	testhelpers.ExpectFrameType(t, conn, "joined")
	testhelpers.ExpectFrameType(t, conn, "user-joined")

	testhelpers.Join(t, conn, "other-room", "impostor")

	// The repeated join produces no reply and changes nothing: the next
	// frame is the chat message, still attributed to the original identity.
	testhelpers.SendJSON(t, conn, map[string]string{"type": "message", "content": "still here"})
	frame := testhelpers.ExpectFrameType(t, conn, "message")
	if username, _ := frame["username"].(string); username != "alice" {
		t.Errorf("Expected identity to survive repeated join, got %v", frame["username"])
	}

	if count := hub.Registry().MemberCount("lobby"); count != 1 {
		t.Errorf("Expected lobby to keep 1 member, got %d", count)
	}
	if count := hub.Registry().MemberCount("other-room"); count != 0 {
		t.Errorf("Expected other-room to stay empty, got %d", count)
	}
}
