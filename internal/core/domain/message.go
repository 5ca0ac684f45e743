package domain

import "time"

// Attachment points at an uploaded file referenced by a message.
type Attachment struct {
	URL string `bson:"url" json:"url"`
}

// Message is a single chat message. Content and attachments are both
// optional but at least one must be present.
type Message struct {
	ID          string       `bson:"_id" json:"id"`
	ChatID      string       `bson:"chat" json:"chat"`
	SenderID    string       `bson:"sender" json:"sender"`
	Content     string       `bson:"content,omitempty" json:"content,omitempty"`
	Attachments []Attachment `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}
