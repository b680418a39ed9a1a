// internal/provider/provider.go
//
// Outbound channel providers. The concrete services (a Mailgun-style email
// API, a Twilio-style messaging API) live behind these interfaces; the rest
// of the codebase only sees SendResult.
package provider

import (
	"context"
	"fmt"
	"hash/fnv"
)

// SendResult is the provider's report for one message.
type SendResult struct {
	ID           string
	Status       string
	ErrorCode    int
	ErrorMessage string
}

// EmailRequest carries a rendered email. Empty optional fields (cc, bcc) are
// omitted from the provider call entirely.
type EmailRequest struct {
	Domain   string
	From     string
	To       string
	Cc       string
	Bcc      string
	Subject  string
	Body     string
	Tags     []string
	TestMode bool
}

// TextRequest carries a rendered SMS or WhatsApp message. WhatsApp prefixes
// the from/to numbers on the wire.
type TextRequest struct {
	From     string
	To       string
	Text     string
	WhatsApp bool
	TestMode bool
}

type EmailProvider interface {
	Send(ctx context.Context, req EmailRequest) (*SendResult, error)
}

type TextProvider interface {
	Send(ctx context.Context, req TextRequest) (*SendResult, error)
}

// syntheticResult builds the deterministic sandbox result returned in test
// mode instead of a live provider response.
func syntheticResult(parts ...string) *SendResult {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return &SendResult{
		ID:     fmt.Sprintf("sandbox-%016x", h.Sum64()),
		Status: "queued",
	}
}
