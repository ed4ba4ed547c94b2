// Package server implements the room-based WebSocket message relay.
//
// The implementation is organized into specialized files: the Registry tracks
// room membership, the Hub serializes registration and broadcast fan-out,
// each Client runs read/write pumps for one connection, and the Session state
// machine interprets the inbound wire protocol and drives membership changes.
package server
