package dto

import (
	"time"

	"github.com/google/uuid"
)

// Message is a rendered notification, in HTML for mail and plain text for chat transports.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// DueReminder carries what the notifier needs to remind an owner about one todo.
type DueReminder struct {
	TodoID      uuid.UUID
	To          string
	Title       string
	Description *string
	DueTime     time.Time // UTC
}
