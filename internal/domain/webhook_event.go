package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookStatus is the delivery state machine's current position.
type WebhookStatus string

const (
	WebhookPending   WebhookStatus = "pending"
	WebhookDelivered WebhookStatus = "delivered"
	WebhookFailed    WebhookStatus = "failed"
)

// WebhookEvent is a durable delivery attempt log. At most one row exists
// per (wallet, transaction signature) pair; once Status reaches a terminal
// value it never reverts.
type WebhookEvent struct {
	ID                   uuid.UUID     `json:"id"`
	WalletAddress        string        `json:"wallet_address"`
	TransactionSignature *string       `json:"transaction_signature,omitempty"`
	EventType            string        `json:"event_type"`
	Payload              []byte        `json:"payload"`
	Status               WebhookStatus `json:"status"`
	Attempts             int           `json:"attempts"`
	LastAttemptAt        *time.Time    `json:"last_attempt_at,omitempty"`
	DeliveredAt          *time.Time    `json:"delivered_at,omitempty"`
	LastError            *string       `json:"last_error,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

// PaymentReceivedData is the event-specific payload for payment.received.
type PaymentReceivedData struct {
	Signature     string `json:"signature"`
	WalletAddress string `json:"wallet_address"`
	Amount        string `json:"amount"`
	Token         string `json:"token"`
	Counterparty  string `json:"counterparty"`
	BlockTime     string `json:"block_time"`
}

// TestEventData is the event-specific payload for a one-shot test event.
type TestEventData struct {
	Message       string `json:"message"`
	WalletAddress string `json:"wallet_address"`
}

// Payload is the full JSON envelope sent to subscriber webhook URLs.
type Payload struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}
