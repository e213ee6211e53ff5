// Package pokemontcg searches the public Pokémon TCG card catalog.
package pokemontcg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultBaseURL = "https://api.pokemontcg.io"
	PageSize       = 20
)

var numberOnly = regexp.MustCompile(`^\d+$`)

type Card struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Number       string   `json:"number"`
	Rarity       string   `json:"rarity"`
	Supertype    string   `json:"supertype"`
	Subtypes     []string `json:"subtypes"`
	ImageSmall   string   `json:"imageSmall"`
	ImageLarge   string   `json:"imageLarge"`
	SetID        string   `json:"setId"`
	SetName      string   `json:"setName"`
	SetSeries    string   `json:"setSeries"`
	MarketPrice  *float64 `json:"marketPrice"`
	TCGPlayerURL *string  `json:"tcgplayerUrl"`
}

type SearchResult struct {
	Cards      []Card `json:"cards"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalCount int    `json:"totalCount"`
}

// APIError keeps the upstream status so the handler can pass it through.
type APIError struct {
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pokemontcg http %d", e.Status)
}

type apiCard struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Number    string   `json:"number"`
	Rarity    string   `json:"rarity"`
	Supertype string   `json:"supertype"`
	Subtypes  []string `json:"subtypes"`
	Images    struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
	Set struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Series string `json:"series"`
	} `json:"set"`
	TCGPlayer *struct {
		URL    string                         `json:"url"`
		Prices map[string]map[string]*float64 `json:"prices"`
	} `json:"tcgplayer"`
}

type apiResponse struct {
	Data       []apiCard `json:"data"`
	TotalCount *int      `json:"totalCount"`
}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// BuildQuery turns user input into catalog query syntax.
func BuildQuery(input string) string {
	q := strings.TrimSpace(input)
	if numberOnly.MatchString(q) {
		return "number:" + q
	}
	return fmt.Sprintf(`name:"%s*"`, q)
}

func (c *Client) Search(ctx context.Context, query string, page int) (SearchResult, error) {
	if page < 1 {
		page = 1
	}
	v := url.Values{}
	v.Set("q", BuildQuery(query))
	v.Set("page", strconv.Itoa(page))
	v.Set("pageSize", strconv.Itoa(PageSize))
	v.Set("orderBy", "-set.releaseDate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/cards?"+v.Encode(), nil)
	if err != nil {
		return SearchResult{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return SearchResult{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return SearchResult{}, &APIError{Status: resp.StatusCode}
	}

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return SearchResult{}, errors.Wrap(err, "decode cards")
	}

	cards := make([]Card, 0, len(ar.Data))
	for _, a := range ar.Data {
		cards = append(cards, toCard(a))
	}
	total := len(cards)
	if ar.TotalCount != nil {
		total = *ar.TotalCount
	}
	return SearchResult{Cards: cards, Page: page, PageSize: PageSize, TotalCount: total}, nil
}

func toCard(a apiCard) Card {
	c := Card{
		ID:         a.ID,
		Name:       a.Name,
		Number:     a.Number,
		Rarity:     a.Rarity,
		Supertype:  a.Supertype,
		Subtypes:   a.Subtypes,
		ImageSmall: a.Images.Small,
		ImageLarge: a.Images.Large,
		SetID:      a.Set.ID,
		SetName:    a.Set.Name,
		SetSeries:  a.Set.Series,
	}
	if c.Subtypes == nil {
		c.Subtypes = []string{}
	}
	if a.TCGPlayer != nil {
		if a.TCGPlayer.URL != "" {
			u := a.TCGPlayer.URL
			c.TCGPlayerURL = &u
		}
		c.MarketPrice = marketPrice(a.TCGPlayer.Prices)
	}
	return c
}

// 変種（holofoil, normal...）をキー順に見て最初のmarket価格
func marketPrice(prices map[string]map[string]*float64) *float64 {
	keys := make([]string, 0, len(prices))
	for k := range prices {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if m := prices[k]["market"]; m != nil {
			v := *m
			return &v
		}
	}
	return nil
}
