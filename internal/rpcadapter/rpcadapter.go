// Package rpcadapter is the typed wrapper over the Solana JSON-RPC surface:
// balances, signature listing, and transaction fetch/decode. It holds no
// state beyond the RPC client and mint address and never touches the
// ledger store.
package rpcadapter

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
)

// Client wraps a Solana JSON-RPC client scoped to one stablecoin mint.
type Client struct {
	rpc      *rpc.Client
	usdcMint solana.PublicKey
}

// New constructs a Client against rpcURL for the given mint address.
func New(rpcURL, usdcMint string) (*Client, error) {
	mint, err := solana.PublicKeyFromBase58(usdcMint)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidAddress, err, "invalid USDC mint address")
	}
	return &Client{
		rpc:      rpc.New(rpcURL),
		usdcMint: mint,
	}, nil
}

// ValidateAddress parses s as a base58 Solana public key, or returns a
// structured InvalidAddress error.
func ValidateAddress(s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, apperr.Wrap(apperr.KindInvalidAddress, err, "invalid Solana address: "+s)
	}
	return pk, nil
}
