// internal/common/aws/ses.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient wraps the SES API for the agenda-saved notification email.
// It satisfies notify.Mailer so the notifier can be stubbed in tests.
type SESClient struct {
	client *ses.Client
}

// NewSESClient builds a client from the default credential chain. An empty
// region defers to AWS_REGION / shared config instead of overriding it.
func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendEmail forwards the prepared agenda summary message to SES.
func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input)
}
