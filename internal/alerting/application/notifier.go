package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	alerting "energyguard/internal/alerting/domain"
)

// NotificationChannel delivers one rendered alert notification.
type NotificationChannel interface {
	Send(ctx context.Context, content string) error
}

// Notifier fans opened alerts out to the delivery channels the rule opted
// into. Every channel is optional: a flag whose channel is not configured is
// skipped. Delivery is best-effort and never fails the alerting path.
type Notifier struct {
	email  NotificationChannel
	sms    NotificationChannel
	push   NotificationChannel
	logger zerolog.Logger
}

// NewNotifier constructs a notifier. Any channel may be nil.
func NewNotifier(email, sms, push NotificationChannel, logger zerolog.Logger) *Notifier {
	return &Notifier{email: email, sms: sms, push: push, logger: logger}
}

// NotifyOpened delivers the alert to each channel the rule enables.
func (n *Notifier) NotifyOpened(ctx context.Context, rule alerting.AlertRule, alert alerting.Alert) {
	if n == nil {
		return
	}
	content := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(alert.Severity), alert.EngineID, alert.Message)
	n.send(ctx, "email", rule.NotifyEmail, n.email, alert.ID, content)
	n.send(ctx, "sms", rule.NotifySMS, n.sms, alert.ID, content)
	n.send(ctx, "push", rule.NotifyPush, n.push, alert.ID, content)
}

func (n *Notifier) send(ctx context.Context, kind string, wanted bool, channel NotificationChannel, alertID, content string) {
	if !wanted {
		return
	}
	if channel == nil {
		n.logger.Debug().Str("channel", kind).Str("alert_id", alertID).Msg("notification channel not configured")
		return
	}
	if err := channel.Send(ctx, content); err != nil {
		n.logger.Warn().Err(err).Str("channel", kind).Str("alert_id", alertID).Msg("alert notification failed")
	}
}
