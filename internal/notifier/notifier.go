// Package notifier delivers digest notifications through Home Assistant
// service calls.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/store"
)

// ServiceCaller is the notification surface of the HA client.
type ServiceCaller interface {
	SendNotification(ctx context.Context, service, title, message string, data map[string]interface{}) error
}

// Notifier formats and sends digest notifications. Persistent
// notifications carry the full digest content; push services get the
// short summary.
type Notifier struct {
	ha      ServiceCaller
	store   store.Store
	service string
	log     zerolog.Logger
}

// New builds a notifier targeting the configured HA notify service.
func New(ha ServiceCaller, st store.Store, service string, log zerolog.Logger) *Notifier {
	return &Notifier{ha: ha, store: st, service: service, log: log}
}

// SendDigest notifies the user about a generated digest and marks the
// record. A delivery failure is logged and returned but the digest itself
// stays valid.
func (n *Notifier) SendDigest(ctx context.Context, digest *model.DigestRecord) error {
	title := "🏠 Home Digest - All systems normal"
	if digest.AttentionCount > 0 {
		title = fmt.Sprintf("🏠 Home Digest - %d items need attention", digest.AttentionCount)
	}

	message := digest.Summary
	if strings.Contains(n.service, "persistent_notification") {
		message = digest.Content
	}

	importance := "default"
	if digest.AttentionCount > 0 {
		importance = "high"
	}
	data := map[string]interface{}{
		"data": map[string]interface{}{
			"tag":        "homepulse_digest",
			"importance": importance,
		},
	}
	if strings.HasPrefix(n.service, "persistent_notification") {
		data["notification_id"] = "homepulse_digest_" + digest.ID
	}

	if err := n.ha.SendNotification(ctx, n.service, title, message, data); err != nil {
		n.log.Error().Err(err).Str("service", n.service).Msg("failed to send digest notification")
		return err
	}

	if err := n.store.Digests().MarkNotificationSent(ctx, digest.ID); err != nil {
		n.log.Warn().Err(err).Str("digest_id", digest.ID).Msg("failed to mark notification sent")
	}
	n.log.Info().Str("service", n.service).Str("digest_id", digest.ID).Msg("digest notification sent")
	return nil
}

// SendTest sends a test notification to verify delivery configuration.
func (n *Notifier) SendTest(ctx context.Context) error {
	data := map[string]interface{}{}
	if strings.HasPrefix(n.service, "persistent_notification") {
		data["notification_id"] = "homepulse_test"
	}
	return n.ha.SendNotification(ctx, n.service,
		"🧪 HomePulse Test",
		"If you see this, notifications are working correctly!",
		data)
}
