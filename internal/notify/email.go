package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sawahraya/backend-beras/internal/common"
	"github.com/sawahraya/backend-beras/internal/events"
)

// Metrics receives send results. Satisfied by obs.DomainMetrics.
type Metrics interface {
	EmailSent(topic, result string)
}

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
	Metrics      Metrics
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event events.Event) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	subject := subjectFor(event.Topic)
	body := bodyFor(event.Topic, payload, event.OccurredAt)
	if err := n.Mail.Send(to, subject, body); err != nil {
		n.observe(event.Topic, "error")
		return err
	}
	n.observe(event.Topic, "sent")
	return nil
}

func (n EmailNotifier) observe(topic, result string) {
	if n.Metrics != nil {
		n.Metrics.EmailSent(topic, result)
	}
}

func extractRecipient(payload map[string]any) string {
	keys := []string{"email", "recipient", "customerEmail"}
	for _, key := range keys {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicOrderCreated:
		return "Pesanan diterima"
	case events.TopicOrderStatusChanged:
		return "Status pesanan diperbarui"
	case events.TopicLoyaltyIssued:
		return "Kode diskon untuk Anda"
	case events.TopicLoyaltyRedeemed:
		return "Kode diskon terpakai"
	default:
		return fmt.Sprintf("Notifikasi %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	summary := fmt.Sprintf("Event %s terjadi pada %s.", topic, occurred.Format(time.RFC3339))
	if orderID, ok := payload["orderId"].(string); ok && orderID != "" {
		summary += fmt.Sprintf("\nID Pesanan: %s", orderID)
	}
	if status, ok := payload["status"].(string); ok && status != "" {
		summary += fmt.Sprintf("\nStatus: %s", status)
	}
	if code, ok := payload["code"].(string); ok && code != "" {
		summary += fmt.Sprintf("\nKode Diskon: %s", code)
	}
	if note, ok := payload["message"].(string); ok && note != "" {
		summary += "\n" + note
	}
	return summary
}
