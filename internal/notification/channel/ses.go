package channel

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"msmeclinic/pkg/platform/sentinel"
)

// sesAPI is the slice of the SES client the channel uses; tests substitute it.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESChannel delivers email through AWS SES.
type SESChannel struct {
	client   sesAPI
	fromName string
	from     string
}

// NewSESChannel builds the SES email channel. An empty region or sender
// address yields an unconfigured channel whose Send short-circuits.
func NewSESChannel(ctx context.Context, region, fromName, from string) (*SESChannel, error) {
	ch := &SESChannel{fromName: fromName, from: from}
	if region == "" || from == "" {
		return ch, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	ch.client = ses.NewFromConfig(cfg)
	return ch, nil
}

func (c *SESChannel) Name() string { return "ses" }

func (c *SESChannel) Send(ctx context.Context, msg Message) error {
	if c.client == nil {
		return fmt.Errorf("ses channel: %w", sentinel.ErrNotConfigured)
	}

	source := c.from
	if c.fromName != "" {
		source = fmt.Sprintf("%s <%s>", c.fromName, c.from)
	}

	_, err := c.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: &source,
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: &msg.Subject},
			Body: &types.Body{
				Html: &types.Content{Data: &msg.HTML},
				Text: &types.Content{Data: &msg.Text},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %v: %w", msg.To, err, sentinel.ErrUnavailable)
	}
	return nil
}
