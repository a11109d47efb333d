package notify

import (
	"context"
	"fmt"

	"github.com/arassiq/SafeSenior/internal/callcontrol"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

// Family SMS templates. The wording is part of the product: family
// members have been onboarded with these exact messages.
const (
	interceptedTemplate = "We have intercepted a call between a scammer and your elder\n\nReason for interception: %s\n\nTranscript: %s"
	approvedTemplate    = "We have approved a call between an unidentified number and your elder\n\nReason for approval: %s\n\nTranscript: %s"
)

// SMSNotifier texts the family contact after every screened call,
// whether the call was intercepted or approved.
type SMSNotifier struct {
	client       callcontrol.Client
	familyNumber string
	logger       logger.Logger
}

// NewSMSNotifier creates an SMS notifier targeting the family contact.
func NewSMSNotifier(client callcontrol.Client, familyNumber string, log logger.Logger) *SMSNotifier {
	return &SMSNotifier{
		client:       client,
		familyNumber: familyNumber,
		logger:       log,
	}
}

// Name implements Notifier.
func (n *SMSNotifier) Name() string {
	return "sms"
}

// CallScreened texts the screening outcome to the family contact.
// Calls without a result are skipped.
func (n *SMSNotifier) CallScreened(ctx context.Context, call *domain.Call) error {
	if call.Result == nil {
		return nil
	}

	intercepted := call.Result.Intercepted()
	body := FamilySMSBody(intercepted, call.Result.Reason, call.Transcript)
	if err := n.client.SendMessage(ctx, n.familyNumber, body); err != nil {
		return fmt.Errorf("family sms for call %s: %w", call.ID, err)
	}

	n.logger.Info("Family SMS sent",
		logger.String("call_id", call.ID),
		logger.String("to", n.familyNumber),
		logger.Bool("intercepted", intercepted))

	return nil
}

// FamilySMSBody renders the family notification for a screening outcome.
func FamilySMSBody(intercepted bool, reason, transcript string) string {
	if intercepted {
		return fmt.Sprintf(interceptedTemplate, reason, transcript)
	}
	return fmt.Sprintf(approvedTemplate, reason, transcript)
}
