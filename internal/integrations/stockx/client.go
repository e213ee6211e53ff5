// Package stockx looks up sneaker market prices in the StockX catalog API.
package stockx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultAPIBase = "https://api.stockx.com"

type searchResponse struct {
	Products []struct {
		Market *struct {
			LowestAsk *decimal.Decimal `json:"lowestAsk"`
		} `json:"market"`
		RetailPrice *decimal.Decimal `json:"retailPrice"`
	} `json:"products"`
}

type Client struct {
	baseURL string
	apiKey  string
	tokens  *TokenSource
	httpc   *http.Client
}

// tokens may be nil; requests then carry only the API key.
func NewClient(baseURL, apiKey string, tokens *TokenSource) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SearchPrice returns the lowest ask of the first catalog hit, falling back
// to its retail price. found=false means the catalog had nothing priced.
func (c *Client) SearchPrice(ctx context.Context, query string) (decimal.Decimal, bool, error) {
	endpoint := fmt.Sprintf("%s/v2/catalog/search?query=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, false, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			// 読み取りはAPIキーだけでも通る
			slog.WarnContext(ctx, "stockx token unavailable", "err", err)
		} else {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return decimal.Zero, false, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, false, fmt.Errorf("stockx http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return decimal.Zero, false, errors.Wrap(err, "decode search")
	}
	if len(sr.Products) == 0 {
		return decimal.Zero, false, nil
	}
	p := sr.Products[0]
	if p.Market != nil && p.Market.LowestAsk != nil {
		return *p.Market.LowestAsk, true, nil
	}
	if p.RetailPrice != nil {
		return *p.RetailPrice, true, nil
	}
	return decimal.Zero, false, nil
}
