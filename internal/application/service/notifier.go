package service

import (
	"context"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"
)

// Transport delivers a rendered message to one recipient address.
type Transport interface {
	// Send delivers msg to the address to. Retrying is left to the caller.
	Send(ctx context.Context, to string, msg dto.Message) error
	// Name identifies the transport ("smtp", "line", "log").
	Name() string
}

// NotifierService builds and sends due-todo reminders.
type NotifierService interface {
	// SendDueReminder renders and sends one reminder. Errors wrap ErrSendFailure.
	SendDueReminder(ctx context.Context, reminder dto.DueReminder) error
	// Recipient resolves the owner's contact address for the active transport.
	Recipient(owner *entity.User) (string, bool)
}
