package domain

import "time"

// Message is a chat message within a job conversation
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
	Read           bool      `json:"read"`
}

func (m Message) EntityID() int64  { return m.ID }
func (m Message) Type() EntityType { return EntityMessage }
func (m Message) GroupKey() int64  { return m.ConversationID }
