package rpcadapter

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	testMint    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testWallet  = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	otherWallet = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
)

func owner(address string) *solana.PublicKey {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		panic(err)
	}
	return &pk
}

func balance(mint, owner string, amount string, decimals uint8) rpc.TokenBalance {
	return rpc.TokenBalance{
		Mint:  mint,
		Owner: ownerOrNil(owner),
		UiTokenAmount: &rpc.UiTokenAmount{
			Amount:   amount,
			Decimals: decimals,
		},
	}
}

func ownerOrNil(address string) *solana.PublicKey {
	if address == "" {
		return nil
	}
	return owner(address)
}

func TestSumOwnerBalanceAggregatesMatchingAccounts(t *testing.T) {
	balances := []rpc.TokenBalance{
		balance(testMint, testWallet, "1000000", 6),
		balance(testMint, testWallet, "2500000", 6),
		balance(testMint, otherWallet, "9000000", 6),
	}

	total := sumOwnerBalance(balances, testWallet, testMint)
	if total.String() != "3.5" {
		t.Fatalf("expected 3.5, got %s", total.String())
	}
}

func TestSumOwnerBalanceIgnoresOtherMints(t *testing.T) {
	balances := []rpc.TokenBalance{
		balance("some-other-mint", testWallet, "5000000", 6),
	}

	total := sumOwnerBalance(balances, testWallet, testMint)
	if !total.IsZero() {
		t.Fatalf("expected zero for a non-matching mint, got %s", total.String())
	}
}

func TestSumOwnerBalanceSkipsNilOwnerAndAmount(t *testing.T) {
	balances := []rpc.TokenBalance{
		{Mint: testMint, Owner: nil, UiTokenAmount: &rpc.UiTokenAmount{Amount: "1000000", Decimals: 6}},
		{Mint: testMint, Owner: owner(testWallet), UiTokenAmount: nil},
	}

	total := sumOwnerBalance(balances, testWallet, testMint)
	if !total.IsZero() {
		t.Fatalf("expected zero when owner or amount is absent, got %s", total.String())
	}
}

func TestFirstOtherOwnerPrefersPostBalances(t *testing.T) {
	post := []rpc.TokenBalance{
		balance(testMint, testWallet, "1000000", 6),
		balance(testMint, otherWallet, "2000000", 6),
	}
	pre := []rpc.TokenBalance{
		balance(testMint, testWallet, "3000000", 6),
	}

	got := firstOtherOwner(post, pre, testWallet, testMint)
	if got != otherWallet {
		t.Fatalf("expected %s from post balances, got %s", otherWallet, got)
	}
}

func TestFirstOtherOwnerFallsBackToPreBalances(t *testing.T) {
	post := []rpc.TokenBalance{
		balance(testMint, testWallet, "1000000", 6),
	}
	pre := []rpc.TokenBalance{
		balance(testMint, otherWallet, "2000000", 6),
	}

	got := firstOtherOwner(post, pre, testWallet, testMint)
	if got != otherWallet {
		t.Fatalf("expected %s from pre balances, got %s", otherWallet, got)
	}
}

func TestFirstOtherOwnerReturnsUnknownWhenNoneFound(t *testing.T) {
	post := []rpc.TokenBalance{
		balance(testMint, testWallet, "1000000", 6),
	}

	got := firstOtherOwner(post, nil, testWallet, testMint)
	if got != "unknown" {
		t.Fatalf("expected unknown, got %s", got)
	}
}
