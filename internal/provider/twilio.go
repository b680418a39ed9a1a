// internal/provider/twilio.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TwilioClient talks to a Twilio-compatible messaging API and covers both SMS
// and WhatsApp (the channel only changes the address prefix).
type TwilioClient struct {
	apiBase    string
	accountSID string
	authToken  string
	http       *http.Client
}

func NewTwilioClient(apiBase, accountSID, authToken string) *TwilioClient {
	if apiBase == "" {
		apiBase = "https://api.twilio.com/2010-04-01"
	}
	return &TwilioClient{
		apiBase:    strings.TrimRight(apiBase, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *TwilioClient) Send(ctx context.Context, req TextRequest) (*SendResult, error) {
	if req.TestMode {
		channel := "sms"
		if req.WhatsApp {
			channel = "whatsapp"
		}
		return syntheticResult(channel, req.From, req.To, req.Text), nil
	}

	from, to := req.From, req.To
	if req.WhatsApp {
		from = "whatsapp:" + from
		to = "whatsapp:" + to
	}

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", req.Text)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiBase, c.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.accountSID, c.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Sid          string `json:"sid"`
		Status       string `json:"status"`
		ErrorCode    *int   `json:"error_code"`
		ErrorMessage string `json:"error_message"`
		Message      string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("twilio response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("twilio returned %d: %s", resp.StatusCode, body.Message)
	}

	result := &SendResult{ID: body.Sid, Status: body.Status, ErrorMessage: body.ErrorMessage}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if body.ErrorCode != nil {
		result.ErrorCode = *body.ErrorCode
	}
	return result, nil
}
