package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GatewaySender sends messages through an HTTP SMS gateway. The gateway
// follows the common provider shape: an API key in the path, form-encoded
// sender/receptor/message fields, and a JSON envelope with a numeric status.
type GatewaySender struct {
	BaseURL string // e.g. https://api.example.com/v1
	APIKey  string
	Line    string // sending line / originator number

	HTTPClient *http.Client
}

func NewGatewaySender(baseURL, apiKey, line string) *GatewaySender {
	return &GatewaySender{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Line:    line,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type gatewayResponse struct {
	Return struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"return"`
}

func (s *GatewaySender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/%s/sms/send.json", s.BaseURL, s.APIKey)

	form := url.Values{}
	form.Set("sender", s.Line)
	form.Set("receptor", to)
	form.Set("message", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway returned HTTP %d", ErrDelivery, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	var parsed gatewayResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: malformed gateway response", ErrDelivery)
	}
	if parsed.Return.Status != 200 {
		return fmt.Errorf("%w: gateway status %d: %s", ErrDelivery, parsed.Return.Status, parsed.Return.Message)
	}

	return nil
}
