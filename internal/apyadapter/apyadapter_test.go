package apyadapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const fixture = `{
	"data": [
		{"pool": "p1", "chain": "Solana", "project": "kamino-lend", "symbol": "USDC", "apy": 8.5, "apyBase": 6.0, "apyReward": 2.5, "tvlUsd": 1000000},
		{"pool": "p2", "chain": "Solana", "project": "save", "symbol": "USDC", "apy": 7.1, "apyBase": 7.1, "apyReward": 0, "tvlUsd": 500000},
		{"pool": "p3", "chain": "Ethereum", "project": "aave-v3", "symbol": "USDC", "apy": 4.0, "apyBase": 4.0, "apyReward": 0, "tvlUsd": 9000000},
		{"pool": "p4", "chain": "Solana", "project": "kamino-lend", "symbol": "SOL", "apy": 3.0, "apyBase": 3.0, "apyReward": 0, "tvlUsd": 100},
		{"pool": "p5", "chain": "Solana", "project": "unknown-protocol", "symbol": "USDC", "apy": 99.0, "apyBase": 99.0, "apyReward": 0, "tvlUsd": 1},
		{"pool": "p6", "chain": "Solana", "project": "marginfi-lend", "symbol": "USDC", "apy": null, "apyBase": null, "apyReward": null, "tvlUsd": 2000000}
	]
}`

func TestFetchRatesFiltersAndRenames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := New().WithBaseURL(srv.URL)
	rates, err := client.FetchRates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rates) != 2 {
		t.Fatalf("expected 2 rates after filtering, got %d: %+v", len(rates), rates)
	}

	byPlatform := make(map[string]NormalizedRate, len(rates))
	for _, r := range rates {
		byPlatform[r.Platform] = r
	}

	if _, ok := byPlatform["kamino"]; !ok {
		t.Fatal("expected kamino-lend to be renamed to kamino")
	}
	if _, ok := byPlatform["save"]; !ok {
		t.Fatal("expected save to survive filtering")
	}
	if _, ok := byPlatform["unknown-protocol"]; ok {
		t.Fatal("expected an untracked project to be filtered out")
	}
	if _, ok := byPlatform["marginfi"]; ok {
		t.Fatal("expected a pool with a null apy to be skipped even on a tracked platform")
	}
}

func TestFetchRatesPreservesNullApyBaseAndReward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"pool": "p7", "chain": "Solana", "project": "kamino-lend", "symbol": "USDC", "apy": 5.0, "apyBase": null, "apyReward": null, "tvlUsd": 100}
		]}`))
	}))
	defer srv.Close()

	client := New().WithBaseURL(srv.URL)
	rates, err := client.FetchRates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rates) != 1 {
		t.Fatalf("expected 1 rate, got %d", len(rates))
	}
	if rates[0].ApyBase != nil {
		t.Fatal("expected ApyBase to stay nil when DeFiLlama omits it")
	}
	if rates[0].ApyReward != nil {
		t.Fatal("expected ApyReward to stay nil when DeFiLlama omits it")
	}
	if rates[0].ApyTotal != 5.0 {
		t.Fatalf("expected ApyTotal 5.0, got %v", rates[0].ApyTotal)
	}
}

func TestFetchRatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New().WithBaseURL(srv.URL)
	if _, err := client.FetchRates(context.Background()); err == nil {
		t.Fatal("expected an error on a non-2xx upstream response")
	}
}
