package in

import (
	"context"

	"extrt/internal/modules/plugin/dto"
	pluginin "extrt/internal/modules/plugin/port/in"
)

type CLIHandler struct {
	usecase pluginin.Usecase
}

func NewCLIHandler(usecase pluginin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListPlugins(ctx context.Context) ([]dto.PluginInfo, error) {
	return h.usecase.ListPlugins(ctx)
}

func (h CLIHandler) ExecuteTask(ctx context.Context, input dto.TaskInput) (dto.ExecutionOutput, error) {
	return h.usecase.ExecuteTask(ctx, input)
}

func (h CLIHandler) ValidateTask(ctx context.Context, input dto.TaskInput) (dto.ValidationOutput, error) {
	return h.usecase.ValidateTask(ctx, input)
}

func (h CLIHandler) TaskInfo(ctx context.Context, pluginID string) (dto.TaskInfo, error) {
	return h.usecase.TaskInfo(ctx, pluginID)
}

func (h CLIHandler) Notify(ctx context.Context, input dto.NotifyInput) (dto.ExecutionOutput, error) {
	return h.usecase.Notify(ctx, input)
}

func (h CLIHandler) Unload(ctx context.Context, pluginID string) error {
	return h.usecase.Unload(ctx, pluginID)
}
