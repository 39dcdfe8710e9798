package pushnotification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sourcegraph/conc"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/pushsubscription"
)

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Sender delivers webpush notifications. Delivery is best-effort: failures are
// logged, never surfaced to the flow that triggered them.
type Sender struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
}

func NewSender(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository) *Sender {
	return &Sender{
		vapidEnv: vapidEnv,
		repo:     repo,
	}
}

// SendToUsers notifies every subscription belonging to the given users.
// Individual sends run concurrently; the call returns once all finish.
func (s *Sender) SendToUsers(ctx context.Context, userIDs []string, payload *NotificationPayload) {
	if s.vapidEnv.VAPIDPrivateKey == "" || s.vapidEnv.VAPIDPublicKey == "" {
		slog.Warn("push notification: VAPID keys not configured, skipping")
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("push notification: failed to marshal payload", "error", err)
		return
	}

	var wg conc.WaitGroup
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		subs, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			slog.Error("push notification: failed to list subscriptions", "user_id", userID, "error", err)
			continue
		}
		for _, sub := range subs {
			sub := sub
			wg.Go(func() {
				s.sendToSubscription(ctx, sub, data)
			})
		}
	}
	wg.Wait()
}

func (s *Sender) sendToSubscription(ctx context.Context, sub *pushsubscription.Subscription, data []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotification(data, wpSub, &webpush.Options{
		VAPIDPublicKey:  s.vapidEnv.VAPIDPublicKey,
		VAPIDPrivateKey: s.vapidEnv.VAPIDPrivateKey,
		Subscriber:      s.vapidEnv.VAPIDContact,
		TTL:             86400,
	})
	if err != nil {
		slog.Error("push notification: failed to send", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		slog.Info("push notification: subscription expired, removing", "endpoint", sub.Endpoint)
		if err := s.repo.Delete(ctx, sub.ID); err != nil {
			slog.Error("push notification: failed to delete expired subscription", "id", sub.ID, "error", err)
		}
		return
	}
	if resp.StatusCode >= 400 {
		slog.Warn("push notification: unexpected status", "endpoint", sub.Endpoint, "status", resp.StatusCode)
	}
}
