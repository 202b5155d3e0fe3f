// internal/notify/email_test.go
package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

type stubMailer struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (s *stubMailer) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	s.inputs = append(s.inputs, input)
	return &ses.SendEmailOutput{}, s.err
}

func agendaWithConflicts(conflicts int) *models.SmartAgenda {
	a := &models.SmartAgenda{
		Days: []models.DaySchedule{
			{DayNumber: 1, Stats: models.DayStats{TotalSessions: 4}},
			{DayNumber: 2, Stats: models.DayStats{TotalSessions: 3}},
		},
	}
	for i := 0; i < conflicts; i++ {
		a.Conflicts = append(a.Conflicts, models.Conflict{Day: 1})
	}
	return a
}

func TestAgendaSaved_SendsEmail(t *testing.T) {
	mailer := &stubMailer{}
	n := NewNotifier(mailer, "noreply@conference.example.com", true, logger.NewTestLogger(t))

	n.AgendaSaved(context.Background(),
		models.BasicUserInfo{Name: "Jane Doe", Email: "jane@acme.com"},
		agendaWithConflicts(0))

	require.Len(t, mailer.inputs, 1)
	input := mailer.inputs[0]
	assert.Equal(t, "noreply@conference.example.com", *input.Source)
	assert.Equal(t, []string{"jane@acme.com"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Body.Text.Data, "Hi Jane Doe")
	assert.Contains(t, *input.Message.Body.Text.Data, "7 sessions across 2 days")
}

func TestAgendaSaved_WarnsAboutConflicts(t *testing.T) {
	mailer := &stubMailer{}
	n := NewNotifier(mailer, "noreply@conference.example.com", true, logger.NewTestLogger(t))

	n.AgendaSaved(context.Background(),
		models.BasicUserInfo{Email: "jane@acme.com"},
		agendaWithConflicts(2))

	require.Len(t, mailer.inputs, 1)
	body := *mailer.inputs[0].Message.Body.Text.Data
	assert.Contains(t, body, "Hi there")
	assert.Contains(t, body, "2 schedule conflicts")
}

func TestAgendaSaved_SkipsWithoutEmail(t *testing.T) {
	mailer := &stubMailer{}
	n := NewNotifier(mailer, "noreply@conference.example.com", true, logger.NewTestLogger(t))

	n.AgendaSaved(context.Background(), models.BasicUserInfo{Name: "Jane"}, agendaWithConflicts(0))
	assert.Empty(t, mailer.inputs)
}

func TestAgendaSaved_SkipsWhenDisabled(t *testing.T) {
	mailer := &stubMailer{}
	n := NewNotifier(mailer, "noreply@conference.example.com", false, logger.NewTestLogger(t))

	n.AgendaSaved(context.Background(), models.BasicUserInfo{Email: "jane@acme.com"}, agendaWithConflicts(0))
	assert.Empty(t, mailer.inputs)
}

func TestAgendaSaved_SendFailureDoesNotPanic(t *testing.T) {
	mailer := &stubMailer{err: assert.AnError}
	n := NewNotifier(mailer, "noreply@conference.example.com", true, logger.NewTestLogger(t))

	n.AgendaSaved(context.Background(), models.BasicUserInfo{Email: "jane@acme.com"}, agendaWithConflicts(0))
	assert.Len(t, mailer.inputs, 1)
}
