package notify

import (
	"context"
	"fmt"

	apperrors "activity-signup/internal/common/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is satisfied by *ses.Client and the aws.SESClient wrapper.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier mails the participant a confirmation for each event.
type EmailNotifier struct {
	client    SESService
	fromEmail string
}

func NewEmailNotifier(client SESService, fromEmail string) *EmailNotifier {
	return &EmailNotifier{client: client, fromEmail: fromEmail}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	subject, body := renderEmail(event)
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{event.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	if err != nil {
		return apperrors.NewNotificationPublishFailedError("ses", err)
	}
	return nil
}

func renderEmail(event Event) (string, string) {
	switch event.Type {
	case EventUnregister:
		return fmt.Sprintf("You left %s", event.Activity),
			fmt.Sprintf("Unregistered %s from %s.", event.Email, event.Activity)
	default:
		return fmt.Sprintf("You joined %s", event.Activity),
			fmt.Sprintf("Signed up %s for %s. Spots left: %d.", event.Email, event.Activity, event.AvailableSpots)
	}
}
