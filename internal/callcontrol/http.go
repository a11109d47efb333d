package callcontrol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arassiq/SafeSenior/internal/circuitbreaker"
	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/errors"
	"github.com/arassiq/SafeSenior/internal/httpclient"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/retry"
)

// serverErrorThreshold is the status code from which a provider response
// is treated as transient.
const serverErrorThreshold = 500

// HTTPClient talks to the call platform's REST API. Every request goes
// through the shared retry policy and a circuit breaker around the
// provider.
type HTTPClient struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
	logger  logger.Logger
}

// NewHTTPClient creates a call platform client from configuration.
func NewHTTPClient(cfg *config.CallControlConfig, log logger.Logger) *HTTPClient {
	retryCfg := retry.DefaultConfig()
	retryCfg.IsRetryable = isRetryable

	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		log.Warn("Call platform circuit state changed",
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.FromNumber,
		client:  httpclient.NewClient(&httpclient.Config{Timeout: cfg.Timeout}),
		breaker: circuitbreaker.New(breakerCfg),
		retry:   retryCfg,
		logger:  log,
	}
}

// isRetryable treats network failures and provider 5xx responses as
// transient. Client errors and an open breaker fail immediately.
func isRetryable(err error) bool {
	if retry.DefaultIsRetryable(err) {
		return true
	}
	if status, ok := errors.GetHTTPStatusCode(err); ok {
		return status >= serverErrorThreshold
	}
	return false
}

type transferRequest struct {
	Destination string `json:"destination"`
	Warm        bool   `json:"warm"`
	Message     string `json:"message,omitempty"`
}

type endRequest struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type messageRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

// TransferCall routes the call to destination. Warm transfers carry the
// family transfer message for the platform to play first.
func (c *HTTPClient) TransferCall(ctx context.Context, callID, destination string, warm bool) error {
	req := transferRequest{Destination: destination, Warm: warm}
	if warm {
		req.Message = FamilyTransferMessage
	}

	endpoint := fmt.Sprintf("%s/calls/%s/transfer", c.baseURL, callID)
	if err := c.post(ctx, endpoint, req); err != nil {
		return fmt.Errorf("transfer call %s: %w", callID, err)
	}

	c.logger.Debug("Call transferred",
		logger.String("call_id", callID),
		logger.String("destination", destination),
		logger.Bool("warm", warm),
	)

	return nil
}

// EndCall terminates the call after the platform plays the blocked
// message.
func (c *HTTPClient) EndCall(ctx context.Context, callID, reason string) error {
	req := endRequest{Reason: reason, Message: BlockedMessage}

	endpoint := fmt.Sprintf("%s/calls/%s/end", c.baseURL, callID)
	if err := c.post(ctx, endpoint, req); err != nil {
		return fmt.Errorf("end call %s: %w", callID, err)
	}

	c.logger.Debug("Call ended",
		logger.String("call_id", callID),
		logger.String("reason", reason),
	)

	return nil
}

// SendMessage delivers an SMS through the platform's messaging endpoint.
func (c *HTTPClient) SendMessage(ctx context.Context, to, body string) error {
	req := messageRequest{From: c.from, To: to, Text: body, Type: "SMS"}

	if err := c.post(ctx, c.baseURL+"/messages", req); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	c.logger.Debug("Message sent",
		logger.String("to", to),
		logger.Int("length", len(body)),
	)

	return nil
}

// post sends one JSON request through the retry policy and the circuit
// breaker. Provider error bodies are parsed into structured HTTP errors.
func (c *HTTPClient) post(ctx context.Context, endpoint string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return retry.Retry(ctx, c.retry, func() error {
		return c.breaker.Execute(ctx, func() error {
			return c.doPost(ctx, endpoint, payload)
		})
	})
}

func (c *HTTPClient) doPost(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := errors.ParseHTTPError(resp); httpErr != nil {
		return httpErr
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
