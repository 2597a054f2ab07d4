package service

import (
	"context"
	"fmt"

	metadomain "extrt/internal/modules/metadata/domain"
	"extrt/internal/modules/metadata/store"
	"extrt/internal/modules/plugin/domain"
	"extrt/internal/platform/health"
	"extrt/internal/platform/logger"
	"extrt/internal/platform/result"
)

// Lifecycle keeps the metadata stores in step with plugin load and unload.
type Lifecycle struct {
	tasks         *TaskExtension
	notifications *NotificationExtension
	stores        *store.Stores
	log           *logger.Logger
}

func NewLifecycle(tasks *TaskExtension, notifications *NotificationExtension, stores *store.Stores, log *logger.Logger) *Lifecycle {
	if log == nil {
		log = logger.Nop()
	}
	return &Lifecycle{tasks: tasks, notifications: notifications, stores: stores, log: log}
}

// PluginLoaded asks the plugin for what the point needs and records it.
// The outcome is written to res; the stores are left untouched on failure.
func (l *Lifecycle) PluginLoaded(ctx context.Context, descriptor domain.PluginDescriptor, point domain.ExtensionPoint, res result.OperationResult) {
	scope := health.PluginScope(descriptor.ID)
	if err := descriptor.Validate(); err != nil {
		res.BadRequest("Invalid plugin descriptor", err.Error(), health.InvalidConfig(scope))
		return
	}
	info := metadomain.PluginInfo{ID: descriptor.ID, Point: point, Descriptor: descriptor}

	var err error
	switch point {
	case domain.ExtensionTask:
		err = l.loadTask(ctx, info)
	case domain.ExtensionNotification:
		err = l.loadNotification(ctx, info)
	case domain.ExtensionSCM:
		err = l.stores.SCM.Set(descriptor.ID, metadomain.SCMPluginInfo{PluginInfo: info, DisplayName: descriptor.Name})
	case domain.ExtensionAnalytics:
		err = l.stores.Analytics.Set(descriptor.ID, metadomain.AnalyticsPluginInfo{PluginInfo: info})
	case domain.ExtensionElasticAgent:
		err = l.stores.ElasticAgent.Set(descriptor.ID, metadomain.ElasticAgentPluginInfo{PluginInfo: info})
	default:
		res.NotAcceptable(fmt.Sprintf("Unknown extension point '%s'", point), "", health.General(scope))
		return
	}

	fields := map[string]any{"plugin_id": descriptor.ID, "extension": string(point)}
	if err != nil {
		l.log.WithFields(fields).Error(err, "plugin load failed")
		res.InternalServerError(fmt.Sprintf("Failed to load plugin '%s': %v", descriptor.ID, err), health.General(scope))
		return
	}
	l.log.WithFields(fields).Info("plugin loaded")
	res.Success(health.General(scope))
}

func (l *Lifecycle) loadTask(ctx context.Context, info metadomain.PluginInfo) error {
	var preference metadomain.TaskPreference
	outcome, err := l.tasks.Execute(ctx, info.ID, func(ctx context.Context, task domain.Task, _ domain.PluginDescriptor) (domain.ExecutionResult, error) {
		config, err := task.Config(ctx)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		view, err := task.View(ctx)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		preference = metadomain.TaskPreference{Config: config, View: view}
		return domain.Success(), nil
	})
	if err != nil {
		return err
	}
	if !outcome.IsSuccessful() {
		return &domain.ExecutionFailedError{Result: outcome}
	}

	info.Settings = preference.Config
	if err := l.stores.Task.Set(info.ID, metadomain.TaskPluginInfo{
		PluginInfo:   info,
		DisplayValue: preference.View.DisplayValue,
		Template:     preference.View.Template,
	}); err != nil {
		return err
	}
	l.stores.TaskPreferences.SetPreferenceFor(info.ID, preference)
	return nil
}

func (l *Lifecycle) loadNotification(ctx context.Context, info metadomain.PluginInfo) error {
	subscriptions, err := l.notifications.SubscribedNotifications(ctx, info.ID)
	if err != nil {
		return err
	}
	return l.stores.Notification.Set(info.ID, metadomain.NotificationPluginInfo{PluginInfo: info, Subscriptions: subscriptions})
}

// PluginUnloaded forgets everything recorded about pluginID.
func (l *Lifecycle) PluginUnloaded(_ context.Context, pluginID string, res result.OperationResult) {
	if pluginID == "" {
		res.BadRequest("Plugin id is required", "", health.General(health.GlobalScope))
		return
	}
	l.stores.RemoveAll(pluginID)
	l.log.WithFields(map[string]any{"plugin_id": pluginID}).Info("plugin unloaded")
	res.OK(fmt.Sprintf("Plugin '%s' unloaded", pluginID))
}
