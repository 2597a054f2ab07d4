package domain

import "context"

// Notifier is the notification extension as seen by callers.
type Notifier interface {
	SubscribedNotifications(ctx context.Context) ([]string, error)
	Notify(ctx context.Context, name string, payload map[string]any) (ExecutionResult, error)
	Validate(ctx context.Context, config Configuration) (ValidationResult, error)
}
