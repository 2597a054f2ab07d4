package service

import (
	"context"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/id"
)

// TaskExtension is the gateway for task plugins.
type TaskExtension struct {
	gateway *Gateway[domain.Task]
}

func NewTaskExtension(registry pluginout.Registry, transport pluginout.Transport, ids id.Generator, opts ...Option) *TaskExtension {
	return &TaskExtension{gateway: NewGateway(domain.ExtensionTask, registry, transport, NewMessageTaskFactory(ids), opts...)}
}

func (e *TaskExtension) Contract(ctx context.Context, pluginID string) (domain.Contract, error) {
	return e.gateway.Resolve(ctx, pluginID)
}

func (e *TaskExtension) Execute(ctx context.Context, pluginID string, action Action[domain.Task]) (domain.ExecutionResult, error) {
	return e.gateway.Execute(ctx, pluginID, action)
}

func (e *TaskExtension) DoOnTask(ctx context.Context, pluginID string, action VoidAction[domain.Task]) (domain.ExecutionResult, error) {
	return e.gateway.DoOn(ctx, pluginID, action)
}

func (e *TaskExtension) Validate(ctx context.Context, pluginID string, config domain.Configuration) (domain.ValidationResult, error) {
	return e.gateway.Validate(ctx, pluginID, config)
}

// Run executes the task with config inside taskCtx.
func (e *TaskExtension) Run(ctx context.Context, pluginID string, config domain.Configuration, taskCtx domain.TaskContext) (domain.ExecutionResult, error) {
	return e.Execute(ctx, pluginID, func(ctx context.Context, task domain.Task, _ domain.PluginDescriptor) (domain.ExecutionResult, error) {
		return task.Execute(ctx, config, taskCtx)
	})
}
