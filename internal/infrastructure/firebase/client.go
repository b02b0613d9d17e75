package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/charmbracelet/log"
	"google.golang.org/api/option"

	"moneyflow/internal/domain/notification"
)

// Client implements notification.Messenger using Firebase Cloud Messaging
type Client struct {
	msgClient *messaging.Client
}

var _ notification.Messenger = (*Client)(nil)

// NewClient initializes a Firebase app and returns an FCM client.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Client{msgClient: msgClient}, nil
}

// SendToTopic sends a push notification to every device subscribed to topic.
func (c *Client) SendToTopic(ctx context.Context, topic string, title, body string, data map[string]string) error {
	if topic == "" {
		return notification.ErrInvalidTopic
	}

	msg := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	id, err := c.msgClient.Send(ctx, msg)
	if err != nil {
		if messaging.IsInvalidArgument(err) {
			return fmt.Errorf("invalid FCM message for topic %s: %w", topic, err)
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	log.Debug("FCM topic message sent", "topic", topic, "id", id)
	return nil
}
