package rpcadapter

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
)

// GetSlot probes RPC liveness by fetching the current slot. Used by the
// detailed health endpoint rather than GetHealth, since GetHealth's
// "unhealthy" response is itself a non-2xx in some RPC providers.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	slot, err := c.rpc.GetSlot(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindRPC, err, "get slot")
	}
	return slot, nil
}
