package model

import (
	"encoding/json"
	"time"
)

// ChatMessage rows are immutable once written. The serial id is the
// canonical total order for history and replay.
type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateChatMessageParams struct {
	UserID int64
	Text   string
}

// BroadcastMessage is a persisted chat message joined with the author's
// denormalized profile fields, as delivered to connected clients.
type BroadcastMessage struct {
	ID          int64     `db:"id" json:"id"`
	Text        string    `db:"text" json:"text"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	DisplayName string    `db:"display_name" json:"displayName"`
	NameColor   string    `db:"name_color" json:"nameColor"`
}

// ToEventData returns the JSON payload for the messageBroadcast event.
func (m *BroadcastMessage) ToEventData() json.RawMessage {
	data, _ := json.Marshal(m)
	return data
}
