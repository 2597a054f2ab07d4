package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"extrt/internal/modules/plugin/domain"
)

const (
	ExecTaskID = "builtin.exec"

	keyCommand = "command"
	keyArgs    = "args"
)

// ExecTask is the in-process task that runs a command in the task's working
// directory. It is served through the direct contract.
type ExecTask struct{}

func (ExecTask) Descriptor() domain.PluginDescriptor {
	return domain.PluginDescriptor{ID: ExecTaskID, Name: "Exec", Version: "1.0.0", Vendor: "extrt"}
}

func (ExecTask) Config(context.Context) (domain.Configuration, error) {
	return domain.NewConfiguration(
		domain.Property{Key: keyCommand, Required: true, DisplayName: "Command", DisplayOrder: 0},
		domain.Property{Key: keyArgs, DisplayName: "Arguments", DisplayOrder: 1},
	), nil
}

func (ExecTask) View(context.Context) (domain.TaskView, error) {
	return domain.TaskView{DisplayValue: "Custom Command", Template: "exec.html"}, nil
}

func (ExecTask) Validate(_ context.Context, config domain.Configuration) (domain.ValidationResult, error) {
	var result domain.ValidationResult
	if strings.TrimSpace(config.Value(keyCommand)) == "" {
		result.AddError(domain.ValidationError{Key: keyCommand, Message: "Command cannot be empty"})
	}
	return result, nil
}

func (ExecTask) Execute(ctx context.Context, config domain.Configuration, taskCtx domain.TaskContext) (domain.ExecutionResult, error) {
	command := strings.TrimSpace(config.Value(keyCommand))
	if command == "" {
		return domain.Failure("Command cannot be empty"), nil
	}
	cmd := exec.CommandContext(ctx, command, strings.Fields(config.Value(keyArgs))...)
	cmd.Dir = taskCtx.WorkingDir
	cmd.Env = os.Environ()
	for k, v := range taskCtx.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimRight(string(output), "\n")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.Failure(trimmed, fmt.Sprintf("%s exited with code %d", command, exitErr.ExitCode())), nil
		}
		return domain.ExecutionResult{}, fmt.Errorf("run %s: %w", command, err)
	}
	return domain.Success(trimmed), nil
}
