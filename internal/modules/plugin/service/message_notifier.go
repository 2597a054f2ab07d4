package service

import (
	"context"
	"fmt"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/id"
)

const (
	notificationRequestInterestedIn = "notifications-interested-in"
	notificationRequestValidate     = "validate-configuration"
)

// MessageNotifier is a domain.Notifier backed by message exchanges.
type MessageNotifier struct {
	messenger
}

func NewMessageNotifierFactory(ids id.Generator) FacadeFactory[domain.Notifier] {
	return func(pluginID string, transport pluginout.Transport) domain.Notifier {
		return &MessageNotifier{messenger{
			pluginID:  pluginID,
			point:     domain.ExtensionNotification,
			version:   domain.NotificationExtensionVersion,
			transport: transport,
			ids:       ids,
		}}
	}
}

func (n *MessageNotifier) SubscribedNotifications(ctx context.Context) ([]string, error) {
	body, err := n.submit(ctx, notificationRequestInterestedIn, nil)
	if err != nil {
		return nil, err
	}
	if err := requireObject(notificationRequestInterestedIn, n.pluginID, body); err != nil {
		return nil, err
	}
	var out []string
	for _, item := range body.Get("notifications").Array() {
		out = append(out, item.String())
	}
	return out, nil
}

func (n *MessageNotifier) Notify(ctx context.Context, name string, payload map[string]any) (domain.ExecutionResult, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := n.submit(ctx, name, payload)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	if err := requireObject(name, n.pluginID, body); err != nil {
		return domain.ExecutionResult{}, err
	}
	var messages []string
	for _, item := range body.Get("messages").Array() {
		messages = append(messages, item.String())
	}
	if body.Get("status").String() == "success" {
		return domain.Success(messages...), nil
	}
	return domain.Failure(messages...), nil
}

type pluginSettingsPayload struct {
	PluginSettings map[string]propertyValue `json:"plugin-settings"`
}

func (n *MessageNotifier) Validate(ctx context.Context, config domain.Configuration) (domain.ValidationResult, error) {
	body, err := n.submit(ctx, notificationRequestValidate, pluginSettingsPayload{PluginSettings: configurationPayload(config)})
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if !body.IsArray() {
		return domain.ValidationResult{}, fmt.Errorf("%w: %s response from plugin '%s' is not a list", domain.ErrMalformedResponse, notificationRequestValidate, n.pluginID)
	}
	var result domain.ValidationResult
	for _, item := range body.Array() {
		result.AddError(domain.ValidationError{Key: item.Get("key").String(), Message: item.Get("message").String()})
	}
	return result, nil
}
