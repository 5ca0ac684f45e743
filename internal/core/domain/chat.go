package domain

import "time"

// Chat is a conversation record referencing its participants by user id.
type Chat struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	IsGroupChat   bool      `bson:"isGroupChat" json:"isGroupChat"`
	LastMessageID string    `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	Participants  []string  `bson:"participants" json:"participants"`
	AdminID       string    `bson:"admin" json:"admin"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasParticipant reports whether the user takes part in the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
