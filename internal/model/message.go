package model

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation, scoped by thread and user.
type Message struct {
	ID        string    `db:"id" json:"id"`
	ThreadID  string    `db:"thread_id" json:"threadId"`
	UserID    string    `db:"user_id" json:"userId"`
	Role      Role      `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
