// Package proto defines the JSON frame protocol spoken on the lobby and
// room WebSocket endpoints. Inbound frames are parsed into an Envelope that
// keeps the original bytes, so frames the server does not interpret
// (offer/answer/ICE signalling) can be relayed to peers verbatim.
package proto

import (
	"encoding/json"
	"fmt"
)

// Inbound frame tags.
const (
	TypePing         = "ping"
	TypeStatusUpdate = "status_update"
	TypeChat         = "chat"
	TypeTyping       = "typing"
	TypeUserState    = "user_state"
)

// Outbound frame tags.
const (
	TypePong        = "pong"
	TypeLobbyUpdate = "lobby_update"
	TypeUserList    = "user_list"
	TypeHistory     = "history"
	TypeSystem      = "system"
)

// ActionPleaseOffer instructs a newly joined peer to start offer negotiation.
const ActionPleaseOffer = "please_offer"

// Envelope is one inbound frame: its tag plus the raw bytes it arrived as.
type Envelope struct {
	Type string
	Raw  []byte
}

// ParseEnvelope extracts the frame tag, keeping the original payload.
func ParseEnvelope(data []byte) (Envelope, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Envelope{}, fmt.Errorf("parse frame: %w", err)
	}
	if head.Type == "" {
		return Envelope{}, fmt.Errorf("parse frame: missing type")
	}
	return Envelope{Type: head.Type, Raw: data}, nil
}

// Decode unmarshals the envelope payload into a typed frame struct.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("decode %s frame: %w", e.Type, err)
	}
	return nil
}

// Ping is a client liveness probe; answered immediately with Pong.
type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

// Pong echoes the client's ping timestamp.
type Pong struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// StatusUpdate changes the caller's presence status.
type StatusUpdate struct {
	Status string `json:"status"`
}

// Chat is a channel chat message. Absent attachment/reply fields mean none.
type Chat struct {
	Sender         string `json:"sender,omitempty"`
	Text           string `json:"text"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	ReplyToID      *int64 `json:"reply_to_id,omitempty"`
}

// UserState carries the caller's own audio/video flags.
// Absent flags default to false.
type UserState struct {
	IsMuted         bool `json:"is_muted"`
	IsDeafened      bool `json:"is_deafened"`
	IsScreenSharing bool `json:"is_screen_sharing"`
}

// System is a server directive frame.
type System struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// HistoryMessage is one prior chat message in a history frame.
type HistoryMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// History is the one-shot backlog pushed to a joining room member.
type History struct {
	Type     string           `json:"type"`
	Messages []HistoryMessage `json:"messages"`
}

// RosterEntry is one participant in a user_list frame.
type RosterEntry struct {
	UUID       string `json:"uuid"`
	IsMuted    bool   `json:"is_muted"`
	IsDeafened bool   `json:"is_deafened"`
}

// UserList is the per-room participant roster.
type UserList struct {
	Type  string        `json:"type"`
	Users []RosterEntry `json:"users"`
}

// OnlineUser is one enriched presence record in a lobby_update frame.
type OnlineUser struct {
	Username    string `json:"username"`
	Status      string `json:"status"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	AvatarColor string `json:"avatar_color"`
	Tag         string `json:"tag"`
}

// LobbyUpdate is the full presence snapshot pushed to every lobby connection.
type LobbyUpdate struct {
	Type        string              `json:"type"`
	TotalOnline int                 `json:"total_online"`
	OnlineUsers []OnlineUser        `json:"online_users"`
	RoomDetails map[string][]string `json:"room_details"`
}
