package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"
)

// SNSPublisher is the subset of the SNS client used by SNSSink
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink forwards refresh events to other portal instances through an SNS topic
type SNSSink struct {
	client   SNSPublisher
	topicARN string
	logger   *zap.Logger
}

// SNSOptions configures the AWS client behind an SNSSink.
// Static keys and Endpoint are meant for local stacks; leave them empty to
// use the default credential chain.
type SNSOptions struct {
	Region          string
	TopicARN        string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewSNSSink creates an SNS sink from opts
func NewSNSSink(ctx context.Context, opts SNSOptions, logger *zap.Logger) (*SNSSink, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewSNSSinkWithClient(client, opts.TopicARN, logger), nil
}

// NewSNSSinkWithClient creates an SNS sink around an existing client
func NewSNSSinkWithClient(client SNSPublisher, topicARN string, logger *zap.Logger) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN, logger: logger}
}

// Publish implements Sink
func (s *SNSSink) Publish(ctx context.Context, event RefreshEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode refresh event: %w", err)
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(WSMessageTypeRefresh),
			},
			"source": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Source),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	s.logger.Debug("refresh event published to SNS",
		zap.String("event_id", event.ID),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// SNSEnvelope is the body SNS posts to HTTP subscriptions
type SNSEnvelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicArn     string `json:"TopicArn"`
	Message      string `json:"Message"`
	SubscribeURL string `json:"SubscribeURL,omitempty"`
}

// SNS envelope types
const (
	SNSTypeNotification        = "Notification"
	SNSTypeSubscriptionConfirm = "SubscriptionConfirmation"
	SNSTypeUnsubscribeConfirm  = "UnsubscribeConfirmation"
)

// DecodeRefreshEvent extracts the refresh event carried by a notification envelope
func DecodeRefreshEvent(env SNSEnvelope) (RefreshEvent, error) {
	var event RefreshEvent
	if env.Type != SNSTypeNotification {
		return event, fmt.Errorf("unexpected SNS message type %q", env.Type)
	}
	if err := json.Unmarshal([]byte(env.Message), &event); err != nil {
		return event, fmt.Errorf("failed to decode refresh event: %w", err)
	}
	return event, nil
}
