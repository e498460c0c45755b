package rpcadapter

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// ParsedEvent is a decoded stablecoin transfer affecting a watched wallet,
// ready for idempotent insertion into the ledger.
type ParsedEvent struct {
	Signature     string
	WalletAddress string
	TxType        domain.TransactionType
	Amount        decimal.Decimal
	TokenMint     string
	Counterparty  string
	BlockTime     time.Time
}

// GetSignatures returns up to limit most recent signatures for wallet,
// newest first. The before cursor is accepted but, per SPEC_FULL.md §4.2,
// is not currently threaded from any caller-supplied value.
func (c *Client) GetSignatures(ctx context.Context, wallet string, limit int, before *solana.Signature) ([]solana.Signature, error) {
	owner, err := ValidateAddress(wallet)
	if err != nil {
		return nil, err
	}

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
		Before:     solana.Signature{},
	}
	if before != nil {
		opts.Before = *before
	}

	infos, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, owner, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRPC, err, "get signatures for address")
	}

	sigs := make([]solana.Signature, 0, len(infos))
	for _, info := range infos {
		sigs = append(sigs, info.Signature)
	}
	return sigs, nil
}

// GetTransactionDetails fetches the parsed transaction and derives at most
// one transfer event for wallet from the pre-/post- token balance diff.
func (c *Client) GetTransactionDetails(ctx context.Context, signature solana.Signature, wallet string) (*ParsedEvent, error) {
	maxVersion := uint64(0)
	tx, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingJSONParsed,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRPC, err, "get transaction")
	}
	if tx == nil || tx.Meta == nil {
		return nil, nil
	}

	pre := sumOwnerBalance(tx.Meta.PreTokenBalances, wallet, c.usdcMint.String())
	post := sumOwnerBalance(tx.Meta.PostTokenBalances, wallet, c.usdcMint.String())
	delta := post.Sub(pre)

	if delta.IsZero() {
		return nil, nil
	}

	var txType domain.TransactionType
	var amount decimal.Decimal
	if delta.IsPositive() {
		txType = domain.TxReceive
		amount = delta
	} else {
		txType = domain.TxSend
		amount = delta.Neg()
	}

	counterparty := firstOtherOwner(tx.Meta.PostTokenBalances, tx.Meta.PreTokenBalances, wallet, c.usdcMint.String())

	blockTime := time.Now().UTC()
	if tx.BlockTime != nil {
		blockTime = time.Unix(int64(*tx.BlockTime), 0).UTC()
	}

	return &ParsedEvent{
		Signature:     signature.String(),
		WalletAddress: wallet,
		TxType:        txType,
		Amount:        amount,
		TokenMint:     c.usdcMint.String(),
		Counterparty:  counterparty,
		BlockTime:     blockTime,
	}, nil
}

// SyncWalletTransactions composes GetSignatures then GetTransactionDetails
// per signature. A per-signature fetch error is logged and skipped; a
// list-level error is surfaced. Returns only the signatures that decoded to
// a transfer.
func (c *Client) SyncWalletTransactions(ctx context.Context, wallet string, limit int) ([]*ParsedEvent, error) {
	sigs, err := c.GetSignatures(ctx, wallet, limit, nil)
	if err != nil {
		return nil, err
	}

	var events []*ParsedEvent
	for _, sig := range sigs {
		event, err := c.GetTransactionDetails(ctx, sig, wallet)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"wallet":    wallet,
				"signature": sig.String(),
			}).Warn("failed to fetch transaction details, skipping")
			continue
		}
		if event != nil {
			events = append(events, event)
		}
	}
	return events, nil
}

func sumOwnerBalance(balances []rpc.TokenBalance, wallet, mint string) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		if b.Mint != mint {
			continue
		}
		if b.Owner == nil || b.Owner.String() != wallet {
			continue
		}
		if b.UiTokenAmount == nil {
			continue
		}
		amt, err := decimal.NewFromString(b.UiTokenAmount.Amount)
		if err != nil {
			continue
		}
		total = total.Add(amt.Shift(-int32(b.UiTokenAmount.Decimals)))
	}
	return total
}

func firstOtherOwner(post, pre []rpc.TokenBalance, wallet, mint string) string {
	for _, b := range post {
		if b.Mint == mint && b.Owner != nil && b.Owner.String() != wallet {
			return b.Owner.String()
		}
	}
	for _, b := range pre {
		if b.Mint == mint && b.Owner != nil && b.Owner.String() != wallet {
			return b.Owner.String()
		}
	}
	return "unknown"
}
