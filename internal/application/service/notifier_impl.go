package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/pkg/config"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"golang.org/x/time/rate"
)

const dueTimeLayout = "2006-01-02 15:04:05"

type notifierService struct {
	transport Transport
	limiter   *rate.Limiter
	log       logger.Logger
}

// NewNotifierService creates a notifier sending through transport, paced by cfg.
func NewNotifierService(transport Transport, cfg config.Notifier, log logger.Logger) NotifierService {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &notifierService{
		transport: transport,
		limiter:   rate.NewLimiter(limit, burst),
		log:       log,
	}
}

// Recipient returns the LINE user ID for the line transport and the email otherwise.
func (s *notifierService) Recipient(owner *entity.User) (string, bool) {
	if owner == nil {
		return "", false
	}
	if s.transport.Name() == config.TransportLine {
		if owner.LineUserID == nil || *owner.LineUserID == "" {
			return "", false
		}
		return *owner.LineUserID, true
	}
	if owner.Email == "" {
		return "", false
	}
	return owner.Email, true
}

// SendDueReminder renders the reminder and hands it to the transport.
func (s *notifierService) SendDueReminder(ctx context.Context, reminder dto.DueReminder) error {
	if reminder.To == "" {
		return fmt.Errorf("%w: no recipient for todo %s", appErrors.ErrSendFailure, reminder.TodoID)
	}
	msg := RenderDueReminder(reminder)

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", appErrors.ErrSendFailure, err)
	}
	if err := s.transport.Send(ctx, reminder.To, msg); err != nil {
		return fmt.Errorf("%w: %s transport: %v", appErrors.ErrSendFailure, s.transport.Name(), err)
	}
	s.log.Debug(fmt.Sprintf("Sent reminder for todo %s via %s", reminder.TodoID, s.transport.Name()))
	return nil
}

// RenderDueReminder builds the subject, HTML body and text body of a reminder.
func RenderDueReminder(r dto.DueReminder) dto.Message {
	desc := "(no description)"
	if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
		desc = *r.Description
	}
	due := r.DueTime.UTC().Format(dueTimeLayout)

	var b strings.Builder
	b.WriteString("<h3>Todo Reminder</h3>")
	fmt.Fprintf(&b, "<p><b>Title:</b> %s</p>", html.EscapeString(r.Title))
	fmt.Fprintf(&b, "<p><b>Description:</b> %s</p>", html.EscapeString(desc))
	fmt.Fprintf(&b, "<p><b>Due (UTC):</b> %s</p>", due)

	return dto.Message{
		Subject: fmt.Sprintf("[Todo Reminder] %s", r.Title),
		HTML:    b.String(),
		Text:    fmt.Sprintf("Todo Reminder\nTitle: %s\nDescription: %s\nDue (UTC): %s", r.Title, desc, due),
	}
}

type logTransport struct {
	log logger.Logger
}

// NewLogTransport returns a transport that only logs reminders. It is the
// default when neither SMTP nor LINE is configured.
func NewLogTransport(log logger.Logger) Transport {
	return &logTransport{log: log}
}

func (t *logTransport) Name() string {
	return config.TransportLog
}

func (t *logTransport) Send(_ context.Context, to string, msg dto.Message) error {
	t.log.Info(fmt.Sprintf("Reminder (delivery disabled) to=%s subject=%q", to, msg.Subject))
	return nil
}
