package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApyRate is a single, append-only APY sample for a platform/chain/token.
type ApyRate struct {
	ID        uuid.UUID        `json:"id"`
	Platform  string           `json:"platform"`
	Chain     string           `json:"chain"`
	Token     string           `json:"token"`
	ApyTotal  decimal.Decimal  `json:"apy_total"`
	ApyBase   *decimal.Decimal `json:"apy_base,omitempty"`
	ApyReward *decimal.Decimal `json:"apy_reward,omitempty"`
	TvlUSD    *decimal.Decimal `json:"tvl_usd,omitempty"`
	PoolID    *string          `json:"pool_id,omitempty"`
	Source    string           `json:"source"`
	FetchedAt time.Time        `json:"fetched_at"`
	CreatedAt time.Time        `json:"created_at"`
}
