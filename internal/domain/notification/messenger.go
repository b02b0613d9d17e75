package notification

import "context"

// Messenger publishes a push message to every device following a topic.
type Messenger interface {
	SendToTopic(ctx context.Context, topic string, title, body string, data map[string]string) error
}
