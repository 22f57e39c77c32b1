package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Recorder writes an audit entry and mails a notification for every action.
type Recorder struct {
	sink     *Sink
	notifier *Notifier
}

// NewRecorder creates a recorder. notifier may be nil.
func NewRecorder(sink *Sink, notifier *Notifier) *Recorder {
	return &Recorder{sink: sink, notifier: notifier}
}

// Log writes the action to the audit trail without a notification. Unauthenticated
// events such as failed logins use it so callers can not trigger mail.
func (r *Recorder) Log(user, action, device, details string) Entry {
	return r.sink.LogAction(user, action, device, details)
}

// Entries reads the audit trail, see Sink.Entries.
func (r *Recorder) Entries(q Query) ([]Entry, error) {
	return r.sink.Entries(q)
}

// Record logs the action and sends the notification. Notification failures are
// logged and do not fail the action.
func (r *Recorder) Record(ctx context.Context, user, action, device, details string) Entry {
	e := r.sink.LogAction(user, action, device, details)

	if r.notifier == nil {
		return e
	}

	subject := fmt.Sprintf("[GoFMG-Admin] %s by %s", action, user)

	body := fmt.Sprintf("User: %s\nAction: %s\nTime: %s\n", e.User, e.Action, e.Time.Format("2006-01-02 15:04:05 MST"))
	if e.Device != "" {
		body += "Device: " + e.Device + "\n"
	}

	if e.Details != "" {
		body += "Details: " + e.Details + "\n"
	}

	body += "Event: " + e.ID + "\n"

	if err := r.notifier.Send(context.WithoutCancel(ctx), subject, body); err != nil {
		log.Warn().Err(err).Str("action", action).Str("event", e.ID).Msg("failed to send audit notification")
	}

	return e
}
