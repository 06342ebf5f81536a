package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/mailinglist/internal/secret"
)

const (
	// DefaultPostmarkURL is the production API endpoint.
	DefaultPostmarkURL = "https://api.postmarkapp.com"

	// DefaultTimeout bounds a single send when none is configured.
	DefaultTimeout = 10 * time.Second

	postmarkTokenHeader = "X-Postmark-Server-Token"
	maxErrorBody        = 4 << 10
)

// PostmarkConfig configures a PostmarkSender.
type PostmarkConfig struct {
	BaseURL string
	Token   secret.String
	Timeout time.Duration

	// HTTPClient overrides the pooled client; its Timeout is replaced by Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// PostmarkSender implements Sender using the Postmark HTTP API.
// All fields are read-only after construction; the http.Client pools connections
// across concurrent sends.
type PostmarkSender struct {
	client   *http.Client
	endpoint string
	token    secret.String
	logger   *slog.Logger
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

type postmarkResponse struct {
	To        string `json:"To"`
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkSender creates a new Postmark email sender
func NewPostmarkSender(cfg PostmarkConfig) *PostmarkSender {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultPostmarkURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		client = &c
	}
	client.Timeout = timeout

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PostmarkSender{
		client:   client,
		endpoint: strings.TrimSuffix(baseURL, "/") + "/email",
		token:    cfg.Token,
		logger:   logger,
	}
}

// Send sends an email via Postmark.
func (p *PostmarkSender) Send(ctx context.Context, msg *Message) error {
	payload := postmarkEmail{
		From:     msg.From,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Kind: KindTransport, Provider: "postmark", Err: fmt.Errorf("failed to marshal email payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return &DeliveryError{Kind: KindTransport, Provider: "postmark", Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(postmarkTokenHeader, p.token.Expose())

	resp, err := p.client.Do(req)
	if err != nil {
		return &DeliveryError{Kind: classify(err), Provider: "postmark", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// The provider accepted the message; a broken body read does not undo that.
		p.logger.Warn("postmark: failed to read response", "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{
			Kind:       KindStatus,
			Provider:   "postmark",
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}

	var result postmarkResponse
	if err := json.Unmarshal(body, &result); err == nil && result.MessageID != "" {
		p.logger.Debug("postmark: email accepted", "message_id", result.MessageID)
	}

	return nil
}

// classify separates timeouts from other transport failures.
func classify(err error) DeliveryKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

func errorDetail(body []byte) string {
	var result postmarkResponse
	if err := json.Unmarshal(body, &result); err == nil && result.Message != "" {
		return fmt.Sprintf("postmark error %d: %s", result.ErrorCode, result.Message)
	}
	return strings.TrimSpace(string(body))
}
