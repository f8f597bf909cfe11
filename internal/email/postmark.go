package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const postmarkBaseURL = "https://api.postmarkapp.com"

// PostmarkSender implements Sender using the Postmark HTTP API.
type PostmarkSender struct {
	http *resty.Client
	from string
}

type postmarkEmail struct {
	From     string           `json:"From"`
	To       string           `json:"To"`
	Subject  string           `json:"Subject"`
	HtmlBody string           `json:"HtmlBody,omitempty"`
	TextBody string           `json:"TextBody,omitempty"`
	Headers  []postmarkHeader `json:"Headers,omitempty"`
}

type postmarkHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type postmarkResponse struct {
	To        string `json:"To"`
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkSender creates a Postmark sender. An empty baseURL uses the public API.
func NewPostmarkSender(apiKey, from, baseURL string) *PostmarkSender {
	if baseURL == "" {
		baseURL = postmarkBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("X-Postmark-Server-Token", apiKey)

	return &PostmarkSender{http: client, from: from}
}

// Send sends an email via Postmark.
func (p *PostmarkSender) Send(ctx context.Context, email *Email) (string, error) {
	payload := postmarkEmail{
		From:     email.From,
		To:       strings.Join(email.To, ","),
		Subject:  email.Subject,
		HtmlBody: email.HTMLBody,
		TextBody: email.TextBody,
	}
	if payload.From == "" {
		payload.From = p.from
	}
	for name, value := range email.Headers {
		payload.Headers = append(payload.Headers, postmarkHeader{Name: name, Value: value})
	}

	var result postmarkResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&result).
		Post("/email")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("postmark API error (status %d): %s", resp.StatusCode(), result.Message)
	}
	if result.ErrorCode != 0 {
		return "", fmt.Errorf("postmark error %d: %s", result.ErrorCode, result.Message)
	}
	return result.MessageID, nil
}
