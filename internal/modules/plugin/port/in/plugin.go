package in

import (
	"context"

	"extrt/internal/modules/plugin/dto"
)

type Usecase interface {
	ListPlugins(ctx context.Context) ([]dto.PluginInfo, error)
	ExecuteTask(ctx context.Context, input dto.TaskInput) (dto.ExecutionOutput, error)
	ValidateTask(ctx context.Context, input dto.TaskInput) (dto.ValidationOutput, error)
	TaskInfo(ctx context.Context, pluginID string) (dto.TaskInfo, error)
	Notify(ctx context.Context, input dto.NotifyInput) (dto.ExecutionOutput, error)
	Unload(ctx context.Context, pluginID string) error
}
