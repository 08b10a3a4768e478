package channel

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"msmeclinic/pkg/platform/sentinel"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSChannel publishes the plain-text rendering of a message to an SNS topic.
// It serves as the backup transport in the fallback chain: when SES is down,
// the ops topic still hears about new registrations.
type SNSChannel struct {
	client   snsAPI
	topicARN string
}

// NewSNSChannel builds the SNS channel. An empty region or topic ARN yields
// an unconfigured channel whose Send short-circuits.
func NewSNSChannel(ctx context.Context, region, topicARN string) (*SNSChannel, error) {
	ch := &SNSChannel{topicARN: topicARN}
	if region == "" || topicARN == "" {
		return ch, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	ch.client = sns.NewFromConfig(cfg)
	return ch, nil
}

func (c *SNSChannel) Name() string { return "sns" }

func (c *SNSChannel) Send(ctx context.Context, msg Message) error {
	if c.client == nil {
		return fmt.Errorf("sns channel: %w", sentinel.ErrNotConfigured)
	}

	body := fmt.Sprintf("[%s] %s\n%s", msg.To, msg.Subject, msg.Text)
	_, err := c.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &c.topicARN,
		Subject:  &msg.Subject,
		Message:  &body,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %v: %w", err, sentinel.ErrUnavailable)
	}
	return nil
}
