package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.resend.com"

type Client struct {
	baseURL string
	apiKey  string
	from    string
	httpc   *http.Client
}

func New(baseURL, apiKey, from string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

type sendReq struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type sendResp struct {
	ID string `json:"id"`
}

// SendEmail returns the provider message id.
func (c *Client) SendEmail(ctx context.Context, e Email) (string, error) {
	if !c.Configured() {
		return "", errors.New("resend not configured")
	}

	body, err := json.Marshal(sendReq{
		From:    c.from,
		To:      []string{e.To},
		Subject: e.Subject,
		HTML:    e.HTML,
		Text:    e.Text,
		ReplyTo: e.ReplyTo,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("resend http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var r sendResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", errors.Wrap(err, "decode")
	}
	return r.ID, nil
}
