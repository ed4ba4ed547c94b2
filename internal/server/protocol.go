// Package server defines the JSON wire protocol exchanged with chat clients:
// a small closed set of inbound events and the outbound notification frames.
package server

import (
	"encoding/json"
	"errors"
	"time"
)

// Inbound frame type discriminators.
const (
	frameTypeJoin    = "join"
	frameTypeMessage = "message"
)

// Outbound frame type discriminators.
const (
	frameTypeJoined     = "joined"
	frameTypeError      = "error"
	frameTypeUserJoined = "user-joined"
	frameTypeUserLeft   = "user-left"
)

// Client-visible validation errors. The text is part of the wire contract.
const (
	errTextRoomIDRequired   = "Room ID is required"
	errTextUsernameRequired = "Username is required"
	errTextProcessingFailed = "Failed to process your message"
)

var errMalformedFrame = errors.New("malformed inbound frame")

// User identifies one room member in membership notifications.
type User struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// inboundEvent is the closed union of events a client may send. Payloads are
// decoded and shape-checked before they reach the session state machine.
type inboundEvent interface {
	isInboundEvent()
}

type joinEvent struct {
	RoomID   string
	Username string
}

type messageEvent struct {
	Content string
}

func (joinEvent) isInboundEvent()    {}
func (messageEvent) isInboundEvent() {}

// inboundFrame is the raw JSON shape shared by all inbound frame types.
type inboundFrame struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// decodeInbound parses a raw payload into one of the inbound event variants.
// Unparseable JSON and unrecognized type discriminators both report
// errMalformedFrame; field-level validation is left to the state machine so
// it can reply with field-specific errors.
func decodeInbound(raw []byte) (inboundEvent, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, errMalformedFrame
	}

	switch frame.Type {
	case frameTypeJoin:
		return joinEvent{RoomID: frame.RoomID, Username: frame.Username}, nil
	case frameTypeMessage:
		return messageEvent{Content: frame.Content}, nil
	default:
		return nil, errMalformedFrame
	}
}

type joinedFrame struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId"`
	Timestamp string `json:"timestamp"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// presenceFrame announces a membership change. It always carries the full
// current member list so clients never need to reconcile deltas.
type presenceFrame struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	Users     []User `json:"users"`
}

type chatFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

func wireTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func encodeJoined(userID, roomID string) []byte {
	return mustEncode(joinedFrame{
		Type:      frameTypeJoined,
		UserID:    userID,
		RoomID:    roomID,
		Timestamp: wireTimestamp(),
	})
}

func encodeError(message string) []byte {
	return mustEncode(errorFrame{Type: frameTypeError, Message: message})
}

func encodePresence(frameType, username string, users []User) []byte {
	return mustEncode(presenceFrame{
		Type:      frameType,
		Username:  username,
		Timestamp: wireTimestamp(),
		Users:     users,
	})
}

func encodeChat(userID, username, content string) []byte {
	return mustEncode(chatFrame{
		Type:      frameTypeMessage,
		Content:   content,
		Username:  username,
		UserID:    userID,
		Timestamp: wireTimestamp(),
	})
}

// mustEncode marshals an outbound frame. All frame types are plain structs of
// strings and slices, so marshaling cannot fail at runtime.
func mustEncode(frame any) []byte {
	payload, err := json.Marshal(frame)
	if err != nil {
		panic(err)
	}
	return payload
}
