package notify

import (
	"log"

	"storefront/internal/models"
)

// Notifier delivers a best-effort order confirmation to staff.
type Notifier interface {
	Notify(order *models.Order) error
}

// LogNotifier is the fallback when no Telegram credentials are
// configured. Orders still show up in the server log.
type LogNotifier struct{}

func (LogNotifier) Notify(order *models.Order) error {
	log.Printf("[NOTIFY] [INFO] order %s created, total %s", order.ID.Hex(), order.TotalAmount)
	return nil
}
