// internal/notify/email.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

// Mailer sends a single email.
type Mailer interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Notifier emails the attendee when their agenda is saved. Delivery is best
// effort: a failed send is logged and never fails the conversation turn.
type Notifier struct {
	mailer    Mailer
	fromEmail string
	enabled   bool
	logger    logger.Logger
}

func NewNotifier(mailer Mailer, fromEmail string, enabled bool, log logger.Logger) *Notifier {
	return &Notifier{
		mailer:    mailer,
		fromEmail: fromEmail,
		enabled:   enabled,
		logger: log.With(map[string]interface{}{
			"component": "notifier",
		}),
	}
}

// AgendaSaved sends the "your agenda is ready" email if the attendee shared an
// address and notifications are turned on.
func (n *Notifier) AgendaSaved(ctx context.Context, info models.BasicUserInfo, agenda *models.SmartAgenda) {
	if !n.enabled || info.Email == "" || n.mailer == nil {
		return
	}

	subject := "Your personalized conference agenda is ready"
	body := n.renderBody(info, agenda)

	_, err := n.mailer.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{info.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.Warn("agenda email failed", map[string]interface{}{
			"email": info.Email,
			"error": err.Error(),
		})
		return
	}
	n.logger.Info("agenda email sent", map[string]interface{}{
		"email": info.Email,
	})
}

func (n *Notifier) renderBody(info models.BasicUserInfo, agenda *models.SmartAgenda) string {
	name := info.Name
	if name == "" {
		name = "there"
	}
	sessions := 0
	for _, day := range agenda.Days {
		sessions += day.Stats.TotalSessions
	}
	body := fmt.Sprintf("Hi %s,\n\nYour personalized agenda is saved: %d sessions across %d days.\n",
		name, sessions, len(agenda.Days))
	if len(agenda.Conflicts) > 0 {
		body += fmt.Sprintf("Heads up: %d schedule conflicts need your attention.\n", len(agenda.Conflicts))
	}
	body += "\nSee you at the conference!\n"
	return body
}
