package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies the direction of a stablecoin transfer.
type TransactionType string

const (
	TxSend    TransactionType = "send"
	TxReceive TransactionType = "receive"
)

// TransactionStatus reflects finality. Only Confirmed is ever produced by
// the sync engine.
type TransactionStatus string

const (
	StatusConfirmed TransactionStatus = "confirmed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is the canonical record of a stablecoin transfer affecting a
// watched wallet. Signature is globally unique and never rewritten.
type Transaction struct {
	Signature     string            `json:"signature"`
	WalletAddress string            `json:"wallet_address"`
	TxType        TransactionType   `json:"tx_type"`
	Amount        decimal.Decimal   `json:"amount"`
	TokenMint     string            `json:"token_mint"`
	Counterparty  string            `json:"counterparty"`
	Status        TransactionStatus `json:"status"`
	BlockTime     time.Time         `json:"block_time"`
	CreatedAt     time.Time         `json:"created_at"`
}
