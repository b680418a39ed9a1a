// internal/provider/mailgun.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MailgunClient talks to a Mailgun-compatible HTTP API. The sending domain
// comes per request because it is derived from each message's from address.
type MailgunClient struct {
	apiBase string
	apiKey  string
	http    *http.Client
}

func NewMailgunClient(apiBase, apiKey string) *MailgunClient {
	if apiBase == "" {
		apiBase = "https://api.mailgun.net/v3"
	}
	return &MailgunClient{
		apiBase: strings.TrimRight(apiBase, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *MailgunClient) Send(ctx context.Context, req EmailRequest) (*SendResult, error) {
	if req.TestMode {
		return syntheticResult("email", req.From, req.To, req.Subject), nil
	}

	form := url.Values{}
	form.Set("from", req.From)
	form.Set("to", req.To)
	form.Set("subject", req.Subject)
	form.Set("html", req.Body)
	if req.Cc != "" {
		form.Set("cc", req.Cc)
	}
	if req.Bcc != "" {
		form.Set("bcc", req.Bcc)
	}
	for _, tag := range req.Tags {
		form.Add("o:tag", tag)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.apiBase, req.Domain)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth("api", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mailgun request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("mailgun response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mailgun returned %d: %s", resp.StatusCode, body.Message)
	}

	return &SendResult{ID: body.ID, Status: body.Message}, nil
}
