package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI is the subset of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends mail through Amazon SES.
type SESSender struct {
	client      sesAPI
	fromAddress string
}

// NewSESSender creates a new SES transport.
func NewSESSender(client sesAPI, fromAddress string) *SESSender {
	return &SESSender{client: client, fromAddress: fromAddress}
}

// NewSESSenderFromConfig loads AWS credentials from the default chain.
func NewSESSenderFromConfig(ctx context.Context, region, fromAddress string) (*SESSender, error) {
	if fromAddress == "" {
		return nil, fmt.Errorf("%w: SES_FROM is required", ErrNotConfigured)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESSender(ses.NewFromConfig(awsCfg), fromAddress), nil
}

// Send delivers one HTML message.
func (p *SESSender) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(p.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
