package usecase

import (
	"context"
	"fmt"
	"sort"

	"extrt/internal/modules/metadata/store"
	"extrt/internal/modules/plugin/domain"
	"extrt/internal/modules/plugin/dto"
	pluginin "extrt/internal/modules/plugin/port/in"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/modules/plugin/service"
	apperrors "extrt/internal/platform/errors"
	"extrt/internal/platform/result"
)

type Interactor struct {
	catalog       pluginout.Catalog
	registrar     pluginout.Registrar
	connections   pluginout.Connections
	lifecycle     *service.Lifecycle
	tasks         *service.TaskExtension
	notifications *service.NotificationExtension
	stores        *store.Stores
}

func NewInteractor(
	catalog pluginout.Catalog,
	registrar pluginout.Registrar,
	connections pluginout.Connections,
	lifecycle *service.Lifecycle,
	tasks *service.TaskExtension,
	notifications *service.NotificationExtension,
	stores *store.Stores,
) pluginin.Usecase {
	return &Interactor{
		catalog:       catalog,
		registrar:     registrar,
		connections:   connections,
		lifecycle:     lifecycle,
		tasks:         tasks,
		notifications: notifications,
		stores:        stores,
	}
}

func (i *Interactor) ListPlugins(ctx context.Context) ([]dto.PluginInfo, error) {
	plugins, err := i.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(plugins))
	for _, p := range plugins {
		info := dto.PluginInfo{
			ID:           p.Descriptor.ID,
			Name:         p.Descriptor.Name,
			Version:      p.Descriptor.Version,
			Vendor:       p.Descriptor.Vendor,
			RegisteredAt: p.RegisteredAt,
		}
		for _, c := range p.Capabilities {
			info.Capabilities = append(info.Capabilities, dto.Capability{Extension: string(c.Point), Contract: string(c.Contract)})
		}
		out = append(out, info)
	}
	return out, nil
}

func (i *Interactor) ExecuteTask(ctx context.Context, input dto.TaskInput) (dto.ExecutionOutput, error) {
	if input.PluginID == "" {
		return dto.ExecutionOutput{}, fmt.Errorf("%w: plugin id is required", apperrors.ErrInvalidInput)
	}
	result, err := i.tasks.Run(ctx, input.PluginID, i.taskConfig(input), domain.TaskContext{
		WorkingDir:  input.WorkingDir,
		Environment: input.Env,
	})
	if err != nil {
		return dto.ExecutionOutput{}, err
	}
	return executionOutput(input.PluginID, result), nil
}

func (i *Interactor) ValidateTask(ctx context.Context, input dto.TaskInput) (dto.ValidationOutput, error) {
	if input.PluginID == "" {
		return dto.ValidationOutput{}, fmt.Errorf("%w: plugin id is required", apperrors.ErrInvalidInput)
	}
	result, err := i.tasks.Validate(ctx, input.PluginID, i.taskConfig(input))
	if err != nil {
		return dto.ValidationOutput{}, err
	}
	out := dto.ValidationOutput{PluginID: input.PluginID, Valid: result.IsSuccessful()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, dto.ValidationError{Key: e.Key, Message: e.Message})
	}
	return out, nil
}

func (i *Interactor) TaskInfo(ctx context.Context, pluginID string) (dto.TaskInfo, error) {
	contract, err := i.tasks.Contract(ctx, pluginID)
	if err != nil {
		return dto.TaskInfo{}, err
	}
	preference, ok := i.stores.TaskPreferences.PreferenceFor(pluginID)
	if !ok {
		return dto.TaskInfo{}, fmt.Errorf("%w: no task metadata for %s", apperrors.ErrNotFound, pluginID)
	}
	out := dto.TaskInfo{
		PluginID:     pluginID,
		Contract:     string(contract),
		DisplayValue: preference.View.DisplayValue,
		Template:     preference.View.Template,
	}
	for _, p := range preference.Config.Properties() {
		out.Properties = append(out.Properties, dto.Property{
			Key:          p.Key,
			DisplayName:  p.DisplayName,
			DefaultValue: p.DefaultValue,
			Required:     p.Required,
			Secure:       p.Secure,
		})
	}
	return out, nil
}

func (i *Interactor) Notify(ctx context.Context, input dto.NotifyInput) (dto.ExecutionOutput, error) {
	if input.PluginID == "" || input.Name == "" {
		return dto.ExecutionOutput{}, fmt.Errorf("%w: plugin id and notification name are required", apperrors.ErrInvalidInput)
	}
	if info, ok := i.stores.Notification.Get(input.PluginID); ok && !subscribed(info.Subscriptions, input.Name) {
		return dto.ExecutionOutput{}, fmt.Errorf("%w: plugin %s is not subscribed to %s", apperrors.ErrInvalidInput, input.PluginID, input.Name)
	}
	result, err := i.notifications.Notify(ctx, input.PluginID, input.Name, input.Payload)
	if err != nil {
		return dto.ExecutionOutput{}, err
	}
	return executionOutput(input.PluginID, result), nil
}

// taskConfig lays the given values over the plugin's declared configuration
// so defaults apply to keys the caller left out.
func (i *Interactor) taskConfig(input dto.TaskInput) domain.Configuration {
	var config domain.Configuration
	if preference, ok := i.stores.TaskPreferences.PreferenceFor(input.PluginID); ok {
		config = preference.Config
	}
	keys := make([]string, 0, len(input.Config))
	for k := range input.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		config = config.WithValue(k, input.Config[k])
	}
	return config
}

func executionOutput(pluginID string, result domain.ExecutionResult) dto.ExecutionOutput {
	return dto.ExecutionOutput{PluginID: pluginID, Success: result.IsSuccessful(), Messages: result.Messages()}
}

func subscribed(subscriptions []string, name string) bool {
	for _, s := range subscriptions {
		if s == name {
			return true
		}
	}
	return false
}

// Unload removes the plugin from the registry first, so new calls fail to
// resolve, then drops its metadata and finally stops its process. Calls
// already past resolution finish on the instance they captured.
func (i *Interactor) Unload(ctx context.Context, pluginID string) error {
	if pluginID == "" {
		return fmt.Errorf("%w: plugin id is required", apperrors.ErrInvalidInput)
	}
	if err := i.registrar.Unregister(ctx, pluginID); err != nil {
		return err
	}
	res := result.NewHTTPOperationResult()
	i.lifecycle.PluginUnloaded(ctx, pluginID, res)
	if !res.CanContinue() {
		return fmt.Errorf("unload %s: %s", pluginID, res.Message())
	}
	i.connections.Close(pluginID)
	return nil
}
