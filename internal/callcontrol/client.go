// Package callcontrol drives the upstream call platform during screening:
// call transfers, terminations, and SMS delivery.
//
// Two implementations exist. The HTTP client talks to the real platform
// with retries and a circuit breaker; the simulated client logs each
// action and records it, which is how the service runs without
// platform credentials.
package callcontrol

import (
	"context"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/logger"
)

// Messages played to callers. Identical across the real and simulated
// clients so demo runs match production behaviour.
const (
	// GreetingMessage opens every screened call.
	GreetingMessage = "Hello, you've reached the SafeSenior screening service. Please hold while we connect your call."
	// FamilyTransferMessage is played before a warm transfer to the family contact.
	FamilyTransferMessage = "One moment please, I'm transferring you to the authorized contact."
	// BlockedMessage is played before a fraudulent call is terminated.
	BlockedMessage = "This call has been identified as potentially fraudulent and has been blocked. If you believe this is an error, please contact our support."
)

// Client is the provider-agnostic control surface the screening pipeline
// drives.
type Client interface {
	// TransferCall routes the call to destination. Warm transfers keep the
	// screening agent bridged for the context handoff.
	TransferCall(ctx context.Context, callID, destination string, warm bool) error
	// EndCall plays the blocked message and terminates the call.
	EndCall(ctx context.Context, callID, reason string) error
	// SendMessage delivers an SMS through the platform's messaging endpoint.
	SendMessage(ctx context.Context, to, body string) error
}

// New selects the client implementation for the given configuration.
// Without an API key the simulated client is used.
func New(cfg *config.CallControlConfig, log logger.Logger) Client {
	if cfg.Simulated() {
		return NewSimulatedClient(log)
	}
	return NewHTTPClient(cfg, log)
}
