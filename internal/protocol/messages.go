// Package protocol defines the JSON messages exchanged between peers
// through the room relay. The action payload must round-trip the verb, raw
// option tokens, and seed exactly as issued, because every receiving peer
// re-executes them verbatim.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MessageType discriminates envelope payloads.
type MessageType string

const (
	// MessageTypeChat is a plain chat line.
	MessageTypeChat MessageType = "chat"

	// MessageTypeAction is a game command to replay.
	MessageTypeAction MessageType = "action"

	// MessageTypePeer announces a peer connecting or disconnecting. Sent by
	// the relay, never by peers.
	MessageTypePeer MessageType = "peer"

	// MessageTypeRoster carries the full room roster to a joining peer.
	MessageTypeRoster MessageType = "roster"
)

// Everyone is the recipient list meaning the whole room.
var Everyone = []string{"everyone"}

// Envelope is the unit the relay routes. From is stamped by the relay; ID
// lets receivers drop duplicates from the at-least-once bus.
type Envelope struct {
	ID      string          `json:"id"`
	To      []string        `json:"to"`
	From    string          `json:"from,omitempty"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload for sending.
func NewEnvelope(messageType MessageType, to []string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s payload: %w", messageType, err)
	}
	return &Envelope{
		ID:      uuid.NewString(),
		To:      to,
		Type:    messageType,
		Payload: data,
	}, nil
}

// Broadcast reports whether the envelope targets the whole room.
func (e *Envelope) Broadcast() bool {
	return len(e.To) == 1 && e.To[0] == "everyone"
}

// Chat is a plain message shown in the transcript.
type Chat struct {
	Text string `json:"text"`
	// SentTo is the display label of the recipient selection ("Everyone",
	// a group, or a player name).
	SentTo string `json:"to,omitempty"`
}

// Action carries one game command. Options are the raw whitespace tokens,
// untouched, so replay is byte-for-byte faithful.
type Action struct {
	Action  string   `json:"action"`
	Options []string `json:"options"`
	Seed    uint32   `json:"seed"`
}

// Peer announces presence changes.
type Peer struct {
	Name      string `json:"peer"`
	Connected bool   `json:"connected"`
}

// Roster carries the ordered names already in the room.
type Roster struct {
	Players []string `json:"players"`
}

// DecodePayload unmarshals the envelope payload into the message struct for
// its type.
func DecodePayload[T any](e *Envelope) (*T, error) {
	var out T
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return nil, fmt.Errorf("protocol: decode %s payload: %w", e.Type, err)
	}
	return &out, nil
}
