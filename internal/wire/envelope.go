// Package wire implements the length-prefixed envelope protocol used
// between remoting peers: a 4-byte big-endian length prefix followed by a
// JSON-encoded Envelope.
package wire

import "encoding/json"

// Kind identifies the purpose of an Envelope.
type Kind string

const (
	KindHandshake    Kind = "handshake"
	KindHeartbeat    Kind = "heartbeat"
	KindUserMessage  Kind = "user_message"
	KindSystemMsg    Kind = "system_message"
	KindAskRequest   Kind = "ask_request"
	KindAskResponse  Kind = "ask_response"
)

// Envelope is the wire-level frame payload. Field use varies by Kind:
//
//   - Handshake: System, Address set; everything else empty.
//   - Heartbeat: all fields empty.
//   - UserMessage/SystemMessage: TargetPath, MessageType, Payload set;
//     SenderPath set when the sender is registered.
//   - AskRequest: TargetPath, MessageType, Payload, CorrelationID set.
//   - AskResponse: CorrelationID set; Payload/MessageType set on success,
//     Error set on failure.
type Envelope struct {
	Kind          Kind            `json:"kind"`
	System        string          `json:"system,omitempty"`
	Address       string          `json:"address,omitempty"`
	TargetPath    string          `json:"target_path,omitempty"`
	SenderPath    string          `json:"sender_path,omitempty"`
	MessageType   string          `json:"message_type,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Handshake constructs the first frame each peer sends after connecting.
func Handshake(system, address string) *Envelope {
	return &Envelope{Kind: KindHandshake, System: system, Address: address}
}

// Heartbeat constructs an empty liveness frame.
func Heartbeat() *Envelope {
	return &Envelope{Kind: KindHeartbeat}
}
