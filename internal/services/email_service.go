package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/mtrenholm/argus/internal/models"
)

// AWSSESEmailService notifies operators about critical alerts using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	toAddresses []string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, toAddresses []string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		toAddresses: toAddresses,
		logger:      logger,
	}, nil
}

// NotifyAlert emails the on-call addresses about an alert.
func (s *AWSSESEmailService) NotifyAlert(ctx context.Context, alert *models.Alert) error {
	if len(s.toAddresses) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[%s] Security Alert: %s", alert.Severity, alert.Title)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #dc3545; color: white; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .detail { background-color: #f8f9fa; padding: 10px; border-left: 4px solid #dc3545; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>%s</h1>
        </div>
        <div class="content">
            <p>%s</p>
            <div class="detail">
                <strong>Type:</strong> %s<br>
                <strong>Severity:</strong> %s<br>
                <strong>Source:</strong> %s<br>
                <strong>Detected:</strong> %s
            </div>
        </div>
        <div class="footer">
            <p>This is an automated message from the security monitoring system. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, alert.Title, alert.Description, alert.Type, alert.Severity, alert.Source, alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	textBody := fmt.Sprintf(`%s

%s

Type:     %s
Severity: %s
Source:   %s
Detected: %s

This is an automated message from the security monitoring system. Please do not reply to this email.
`, alert.Title, alert.Description, alert.Type, alert.Severity, alert.Source, alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: s.toAddresses,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send alert email via SES",
			slog.String("alert_id", alert.ID),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("alert notification email sent",
		slog.String("alert_id", alert.ID),
		slog.String("message_id", *result.MessageId))

	return nil
}
