package rpcadapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
)

// usdcDecimals is the fixed fractional-digit count for the stablecoin.
const usdcDecimals = 6

// parsedTokenAccount mirrors the subset of the jsonParsed token-account
// encoding this adapter cares about: the raw, unscaled token amount.
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			TokenAmount struct {
				Amount string `json:"amount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// GetTokenBalance sums the raw token-account amounts for wallet filtered by
// the configured mint. A wallet with no matching token account returns a
// zero balance, not an error.
func (c *Client) GetTokenBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	owner, err := ValidateAddress(wallet)
	if err != nil {
		return decimal.Zero, err
	}

	accounts, err := c.rpc.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{Mint: &c.usdcMint},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return decimal.Zero, apperr.Wrap(apperr.KindRPC, err, "get token accounts by owner")
	}

	var total int64
	for _, acc := range accounts.Value {
		raw := acc.Account.Data.GetRawJSON()
		if len(raw) == 0 {
			continue
		}
		var parsed parsedTokenAccount
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}
		amount, convErr := strconv.ParseInt(parsed.Parsed.Info.TokenAmount.Amount, 10, 64)
		if convErr != nil {
			continue
		}
		total += amount
	}

	return decimal.New(total, -usdcDecimals), nil
}
