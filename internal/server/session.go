// Package server drives the per-connection protocol through the Session type,
// a state machine that interprets inbound events and updates room membership.
package server

import "github.com/google/uuid"

// sessionState tracks where a connection is in its lifecycle. Transitions only
// move forward: an unjoined connection may join exactly one room, and a closed
// session never processes another event.
type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateUnjoined:
		return "unjoined"
	case stateJoined:
		return "joined"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the per-connection state machine. It is driven exclusively by the
// owning client's read pump, so its fields need no locking. All side effects
// go through the hub: direct replies to the owning client and broadcasts to
// the joined room.
type Session struct {
	state  sessionState
	roomID string
	client *Client
	hub    *Hub
}

func newSession(client *Client, hub *Hub) *Session {
	return &Session{state: stateUnjoined, client: client, hub: hub}
}

// handleInbound decodes one raw payload and dispatches it to the state
// machine. Malformed payloads and unknown frame types get a generic error
// reply and leave the session state untouched; they are never fatal.
func (s *Session) handleInbound(raw []byte) {
	if s.state == stateClosed {
		return
	}

	event, err := decodeInbound(raw)
	if err != nil {
		protocolErrors.Inc()
		s.hub.log.Debug("malformed frame", "addr", s.client.addr, "state", s.state.String())
		s.reply(encodeError(errTextProcessingFailed))
		return
	}

	switch event := event.(type) {
	case joinEvent:
		s.handleJoin(event)
	case messageEvent:
		s.handleMessage(event)
	}
}

// handleJoin processes a join request. It validates the payload, assigns the
// connection its identity, registers it with the room, confirms to the sender,
// and announces the updated member list to the room.
func (s *Session) handleJoin(event joinEvent) {
	if s.state != stateUnjoined {
		// A connection joins at most one room for its lifetime; repeated
		// joins are invalid-state events and are dropped silently.
		return
	}

	if event.RoomID == "" {
		s.reply(encodeError(errTextRoomIDRequired))
		return
	}
	if event.Username == "" {
		s.reply(encodeError(errTextUsernameRequired))
		return
	}

	client := s.client
	client.userID = uuid.NewString()
	client.username = event.Username

	s.hub.registry.Join(event.RoomID, client)
	s.state = stateJoined
	s.roomID = event.RoomID
	activeRooms.Set(float64(s.hub.registry.RoomCount()))

	s.hub.log.Info("client joined room",
		"addr", client.addr, "room", event.RoomID, "user", event.Username, "userId", client.userID)

	s.reply(encodeJoined(client.userID, event.RoomID))

	users := s.hub.registry.ActiveUsers(event.RoomID)
	s.hub.Broadcast(event.RoomID, encodePresence(frameTypeUserJoined, event.Username, users))
}

// handleMessage relays a chat message to the sender's room. Messages from a
// connection that never joined are dropped without an error reply, matching
// the relay's original behavior. Empty content is likewise a no-op.
func (s *Session) handleMessage(event messageEvent) {
	if s.state != stateJoined {
		return
	}
	if event.Content == "" {
		return
	}

	client := s.client
	s.hub.Broadcast(s.roomID, encodeChat(client.userID, client.username, event.Content))
}

// handleDisconnect finalizes the session when the connection closes. A joined
// connection leaves its room; if members remain they are told who left, and an
// emptied room is dropped by the registry. The session is terminal afterwards.
func (s *Session) handleDisconnect() {
	if s.state == stateClosed {
		return
	}

	if s.state == stateJoined {
		client := s.client
		s.hub.registry.Leave(s.roomID, client)
		activeRooms.Set(float64(s.hub.registry.RoomCount()))

		users := s.hub.registry.ActiveUsers(s.roomID)
		if len(users) > 0 {
			s.hub.Broadcast(s.roomID, encodePresence(frameTypeUserLeft, client.username, users))
		}
		s.hub.log.Info("client left room",
			"addr", client.addr, "room", s.roomID, "user", client.username)
	}

	s.state = stateClosed
}

// reply queues a frame for the owning client only.
func (s *Session) reply(payload []byte) {
	s.hub.safeSend(s.client, payload)
}
