package domain

import "time"

// Wallet is a registered on-chain address under watch.
type Wallet struct {
	Address    string    `json:"address"`
	WebhookURL *string   `json:"webhook_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasWebhook reports whether the wallet has a non-empty webhook URL.
func (w *Wallet) HasWebhook() bool {
	return w.WebhookURL != nil && *w.WebhookURL != ""
}
