package messaging

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
)

// Message is a direct message, or an announcement to everyone when RecipientID is nil.
type Message struct {
	ID          string     `json:"id" db:"id"`
	SenderID    string     `json:"sender_id" db:"sender_id"`
	RecipientID *string    `json:"recipient_id" db:"recipient_id"`
	Subject     string     `json:"subject" db:"subject"`
	Body        string     `json:"body" db:"body"`
	ReadAt      *time.Time `json:"read_at" db:"read_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

func (m Message) IsAnnouncement() bool {
	return m.RecipientID == nil
}

type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	Room      string    `json:"room" db:"room"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var (
	MessageColumns = []string{"id", "sender_id", "recipient_id", "subject", "read_at", "created_at"}
	ChatColumns    = []string{"id", "room", "sender_id", "created_at"}
)

type NewMessage struct {
	RecipientID string `json:"recipient_id" validate:"omitempty,uuid"` // empty: announcement
	Subject     string `json:"subject" validate:"max=200"`
	Body        string `json:"body" validate:"required,max=10000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Subject = core.CleanString(nm.Subject)
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}

type NewChatMessage struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (nc *NewChatMessage) Validate(validate *validator.Validate) error {
	nc.Body = core.CleanString(nc.Body)
	return validate.Struct(nc)
}

// UnreadCount counts the direct messages not read yet; announcements have no read state.
func UnreadCount(messages []Message) int {
	var cnt int
	for _, m := range messages {
		if !m.IsAnnouncement() && m.ReadAt == nil {
			cnt++
		}
	}
	return cnt
}
