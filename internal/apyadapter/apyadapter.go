// Package apyadapter fetches and normalizes yield data from the DeFiLlama
// pools API for the stablecoin lending platforms this service tracks.
package apyadapter

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
)

const poolsEndpoint = "https://yields.llama.fi/pools"

// platformNames maps a DeFiLlama project slug to the short platform name
// this service stores and serves.
var platformNames = map[string]string{
	"kamino-lend":   "kamino",
	"save":          "save",
	"marginfi-lend": "marginfi",
}

// Client is a thin wrapper over the DeFiLlama pools endpoint.
type Client struct {
	http *resty.Client
	base string
}

// New builds a Client with a bounded request timeout.
func New() *Client {
	return &Client{
		http: resty.New().SetTimeout(15 * time.Second),
		base: poolsEndpoint,
	}
}

// WithBaseURL overrides the pools endpoint, for tests that stand up a local
// HTTP server in place of the real DeFiLlama API.
func (c *Client) WithBaseURL(url string) *Client {
	c.base = url
	return c
}

type poolsResponse struct {
	Data []pool `json:"data"`
}

type pool struct {
	Pool      string   `json:"pool"`
	Chain     string   `json:"chain"`
	Project   string   `json:"project"`
	Symbol    string   `json:"symbol"`
	TvlUsd    float64  `json:"tvlUsd"`
	Apy       *float64 `json:"apy"`
	ApyBase   *float64 `json:"apyBase"`
	ApyReward *float64 `json:"apyReward"`
}

// NormalizedRate is a DeFiLlama pool filtered and renamed into this
// service's platform vocabulary, still in float64 form as returned by the
// upstream API; the caller is responsible for converting to decimal.Decimal
// before persisting. ApyBase/ApyReward stay nil when DeFiLlama omits them;
// ApyTotal is always present since a missing apy drops the pool.
type NormalizedRate struct {
	Platform  string
	Chain     string
	Token     string
	PoolID    string
	ApyTotal  float64
	ApyBase   *float64
	ApyReward *float64
	TvlUSD    float64
}

// FetchRates pulls the full DeFiLlama pool list and filters it down to
// chain=="solana" && symbol=="USDC" pools on the tracked lending platforms.
func (c *Client) FetchRates(ctx context.Context) ([]NormalizedRate, error) {
	var body poolsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.base)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, err, "fetch defillama pools")
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.KindExternal, "defillama pools request failed: "+resp.Status())
	}

	var out []NormalizedRate
	for _, p := range body.Data {
		if p.Chain != "Solana" && p.Chain != "solana" {
			continue
		}
		if p.Symbol != "USDC" {
			continue
		}
		platform, ok := platformNames[p.Project]
		if !ok {
			continue
		}
		if p.Apy == nil {
			continue
		}
		out = append(out, NormalizedRate{
			Platform:  platform,
			Chain:     "solana",
			Token:     "USDC",
			PoolID:    p.Pool,
			ApyTotal:  *p.Apy,
			ApyBase:   p.ApyBase,
			ApyReward: p.ApyReward,
			TvlUSD:    p.TvlUsd,
		})
	}
	return out, nil
}
