package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Link is a web citation attached to a grounded model reply.
type Link struct {
	Title string `bson:"title" json:"title"`
	URL   string `bson:"url" json:"url"`
}

// ChatMessage is one entry of a session's conversation log
type ChatMessage struct {
	ID        string    `bson:"id" json:"id"`
	Role      Role      `bson:"role" json:"role"`
	Text      string    `bson:"text" json:"text"`
	Links     []Link    `bson:"links,omitempty" json:"links,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ChatTurn is the role/text view of a message handed to the consultant.
type ChatTurn struct {
	Role Role
	Text string
}

// ConsultationReply is what the consultant answers with.
type ConsultationReply struct {
	Text  string `json:"text"`
	Links []Link `json:"links"`
}
