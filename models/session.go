package models

import "time"

// Session is the persisted state of one stylist conversation.
// Images are data URLs in memory; ImageOffloadStore swaps them for
// blob keys when the session is written to MongoDB.
type Session struct {
	ID             string        `bson:"_id" json:"id"`
	Mode           Mode          `bson:"mode" json:"mode"`
	SubjectImage   string        `bson:"subject_image,omitempty" json:"subject_image,omitempty"`
	ReferenceImage string        `bson:"reference_image,omitempty" json:"reference_image,omitempty"`
	GeneratedImage string        `bson:"generated_image,omitempty" json:"generated_image,omitempty"`
	Messages       []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy that shares no slices with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		if m.Links != nil {
			m.Links = append([]Link(nil), m.Links...)
		}
		c.Messages[i] = m
	}
	return &c
}
