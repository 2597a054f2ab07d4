package service

import (
	"context"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/id"
)

// NotificationExtension is the gateway for notification plugins.
type NotificationExtension struct {
	gateway *Gateway[domain.Notifier]
}

func NewNotificationExtension(registry pluginout.Registry, transport pluginout.Transport, ids id.Generator, opts ...Option) *NotificationExtension {
	return &NotificationExtension{gateway: NewGateway(domain.ExtensionNotification, registry, transport, NewMessageNotifierFactory(ids), opts...)}
}

func (e *NotificationExtension) Notify(ctx context.Context, pluginID, name string, payload map[string]any) (domain.ExecutionResult, error) {
	return e.gateway.Execute(ctx, pluginID, func(ctx context.Context, n domain.Notifier, _ domain.PluginDescriptor) (domain.ExecutionResult, error) {
		return n.Notify(ctx, name, payload)
	})
}

func (e *NotificationExtension) SubscribedNotifications(ctx context.Context, pluginID string) ([]string, error) {
	var subscriptions []string
	result, err := e.gateway.Execute(ctx, pluginID, func(ctx context.Context, n domain.Notifier, _ domain.PluginDescriptor) (domain.ExecutionResult, error) {
		subs, err := n.SubscribedNotifications(ctx)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		subscriptions = subs
		return domain.Success(), nil
	})
	if err != nil {
		return nil, err
	}
	if !result.IsSuccessful() {
		return nil, &domain.ExecutionFailedError{Result: result}
	}
	return subscriptions, nil
}

func (e *NotificationExtension) Validate(ctx context.Context, pluginID string, config domain.Configuration) (domain.ValidationResult, error) {
	return e.gateway.Validate(ctx, pluginID, config)
}
