package callcontrol

import (
	"context"
	"sync"
	"time"

	"github.com/arassiq/SafeSenior/internal/logger"
)

// ActionKind labels a recorded platform action.
type ActionKind string

const (
	// ActionKindTransfer is a call transfer.
	ActionKindTransfer ActionKind = "transfer"
	// ActionKindEnd is a call termination.
	ActionKindEnd ActionKind = "end"
	// ActionKindSMS is an outbound text message.
	ActionKindSMS ActionKind = "sms"
)

// ActionRecord captures one action the simulated client performed.
type ActionRecord struct {
	Kind        ActionKind
	CallID      string
	Destination string
	Warm        bool
	Reason      string
	To          string
	Body        string
	At          time.Time
}

// SimulatedClient logs platform actions instead of performing them. It is
// the default client when no API key is configured, and the test double
// for the screening pipeline.
type SimulatedClient struct {
	logger logger.Logger

	mu      sync.Mutex
	actions []ActionRecord
}

// NewSimulatedClient creates a simulated call platform client.
func NewSimulatedClient(log logger.Logger) *SimulatedClient {
	return &SimulatedClient{logger: log}
}

// TransferCall records and logs the transfer.
func (s *SimulatedClient) TransferCall(_ context.Context, callID, destination string, warm bool) error {
	s.record(ActionRecord{
		Kind:        ActionKindTransfer,
		CallID:      callID,
		Destination: destination,
		Warm:        warm,
		At:          time.Now(),
	})

	if warm {
		s.logger.Info("Simulated warm transfer",
			logger.String("call_id", callID),
			logger.String("destination", destination),
			logger.String("caller_message", FamilyTransferMessage),
		)
		return nil
	}

	s.logger.Info("Simulated normal transfer, call appears safe",
		logger.String("call_id", callID),
		logger.String("destination", destination),
	)

	return nil
}

// EndCall records and logs the block.
func (s *SimulatedClient) EndCall(_ context.Context, callID, reason string) error {
	s.record(ActionRecord{
		Kind:   ActionKindEnd,
		CallID: callID,
		Reason: reason,
		At:     time.Now(),
	})

	s.logger.Info("Simulated call block",
		logger.String("call_id", callID),
		logger.String("reason", reason),
		logger.String("caller_message", BlockedMessage),
	)

	return nil
}

// SendMessage records and logs the SMS.
func (s *SimulatedClient) SendMessage(_ context.Context, to, body string) error {
	s.record(ActionRecord{
		Kind: ActionKindSMS,
		To:   to,
		Body: body,
		At:   time.Now(),
	})

	s.logger.Info("Simulated SMS",
		logger.String("to", to),
		logger.String("body", body),
	)

	return nil
}

// Actions returns a copy of the recorded actions in call order.
func (s *SimulatedClient) Actions() []ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ActionRecord, len(s.actions))
	copy(out, s.actions)
	return out
}

// Reset clears the recorded actions.
func (s *SimulatedClient) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = nil
}

func (s *SimulatedClient) record(a ActionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = append(s.actions, a)
}
