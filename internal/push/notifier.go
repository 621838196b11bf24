package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/choreus/internal/model"
)

type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

type SubscriptionStore interface {
	ListByUsers(ctx context.Context, userIDs []string) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Notifier fans a payload out to every device of a set of members and
// forgets devices the push service reports as gone.
type Notifier struct {
	sender Sender
	subs   SubscriptionStore
	logger *slog.Logger
}

func NewNotifier(sender Sender, subs SubscriptionStore, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, subs: subs, logger: logger}
}

// NotifyUsers sends payload to each listed user's subscriptions and
// returns how many deliveries succeeded.
func (n *Notifier) NotifyUsers(ctx context.Context, userIDs []string, payload Payload) int {
	if len(userIDs) == 0 {
		return 0
	}
	subs, err := n.subs.ListByUsers(ctx, userIDs)
	if err != nil {
		n.logger.Error("list push subscriptions", "error", err)
		return 0
	}

	sent := 0
	for i := range subs {
		sub := &subs[i]
		err := n.sender.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired):
			if err := n.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				n.logger.Error("delete expired push subscription", "error", err)
			} else {
				n.logger.Info("removed expired push subscription", "user_id", sub.UserID)
			}
		default:
			n.logger.Warn("send push notification", "user_id", sub.UserID, "tag", payload.Tag, "error", err)
		}
	}
	return sent
}
