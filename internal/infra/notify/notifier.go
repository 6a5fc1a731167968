package notify

import (
	"context"
	"errors"
	"log/slog"

	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

// EmailSender delivers one email message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// StaffBroadcaster publishes staff-facing events to the alert channel.
type StaffBroadcaster interface {
	Broadcast(ctx context.Context, kind, title, message string, data map[string]any) error
}

// CompositeNotifier fans a notification out over every configured channel.
// Contact details travel in the data map so no user store lookup is needed;
// a channel without a configured sender or without an address is skipped.
type CompositeNotifier struct {
	email     EmailSender
	sms       SMSSender
	broadcast StaffBroadcaster
}

func NewCompositeNotifier(email EmailSender, sms SMSSender, broadcast StaffBroadcaster) shared.Notifier {
	return &CompositeNotifier{email: email, sms: sms, broadcast: broadcast}
}

func (n *CompositeNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error {
	var errs []error

	if email, ok := data["email"].(string); ok && email != "" && n.email != nil {
		if err := n.email.Send(ctx, email, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	if phone, ok := data["phone"].(string); ok && phone != "" && n.sms != nil {
		if err := n.sms.Send(ctx, phone, message); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	slog.Debug("notification dispatched", "user_id", userID.String(), "kind", kind)
	return nil
}

func (n *CompositeNotifier) BroadcastStaff(ctx context.Context, kind, title, message string, data map[string]any) error {
	if n.broadcast == nil {
		slog.Info("staff alert", "kind", kind, "title", title, "message", message)
		return nil
	}
	return n.broadcast.Broadcast(ctx, kind, title, message, data)
}
