package service

import (
	"context"
	"strconv"

	"github.com/tidwall/gjson"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/id"
)

const (
	taskRequestConfiguration = "configuration"
	taskRequestView          = "view"
	taskRequestValidate      = "validate"
	taskRequestExecute       = "execute"
)

// MessageTask is a domain.Task backed by message exchanges.
type MessageTask struct {
	messenger
}

func NewMessageTaskFactory(ids id.Generator) FacadeFactory[domain.Task] {
	return func(pluginID string, transport pluginout.Transport) domain.Task {
		return &MessageTask{messenger{
			pluginID:  pluginID,
			point:     domain.ExtensionTask,
			version:   domain.TaskExtensionVersion,
			transport: transport,
			ids:       ids,
		}}
	}
}

func (t *MessageTask) Config(ctx context.Context) (domain.Configuration, error) {
	body, err := t.submit(ctx, taskRequestConfiguration, nil)
	if err != nil {
		return domain.Configuration{}, err
	}
	if err := requireObject(taskRequestConfiguration, t.pluginID, body); err != nil {
		return domain.Configuration{}, err
	}
	var config domain.Configuration
	body.ForEach(func(key, value gjson.Result) bool {
		config = config.With(domain.Property{
			Key:          key.String(),
			DefaultValue: value.Get("default-value").String(),
			Secure:       value.Get("secure").Bool(),
			Required:     value.Get("required").Bool(),
			DisplayName:  value.Get("display-name").String(),
			DisplayOrder: displayOrder(value.Get("display-order")),
		})
		return true
	})
	return config, nil
}

func (t *MessageTask) View(ctx context.Context) (domain.TaskView, error) {
	body, err := t.submit(ctx, taskRequestView, nil)
	if err != nil {
		return domain.TaskView{}, err
	}
	if err := requireObject(taskRequestView, t.pluginID, body); err != nil {
		return domain.TaskView{}, err
	}
	return domain.TaskView{
		DisplayValue: body.Get("displayValue").String(),
		Template:     body.Get("template").String(),
	}, nil
}

func (t *MessageTask) Validate(ctx context.Context, config domain.Configuration) (domain.ValidationResult, error) {
	body, err := t.submit(ctx, taskRequestValidate, configurationPayload(config))
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if err := requireObject(taskRequestValidate, t.pluginID, body); err != nil {
		return domain.ValidationResult{}, err
	}
	var result domain.ValidationResult
	body.Get("errors").ForEach(func(key, value gjson.Result) bool {
		result.AddError(domain.ValidationError{Key: key.String(), Message: value.String()})
		return true
	})
	return result, nil
}

type executeContextPayload struct {
	EnvironmentVariables map[string]string `json:"environmentVariables"`
	WorkingDirectory     string            `json:"workingDirectory"`
}

type executePayload struct {
	Config  map[string]propertyValue `json:"config"`
	Context executeContextPayload    `json:"context"`
}

func (t *MessageTask) Execute(ctx context.Context, config domain.Configuration, taskCtx domain.TaskContext) (domain.ExecutionResult, error) {
	env := taskCtx.Environment
	if env == nil {
		env = map[string]string{}
	}
	body, err := t.submit(ctx, taskRequestExecute, executePayload{
		Config:  configurationPayload(config),
		Context: executeContextPayload{EnvironmentVariables: env, WorkingDirectory: taskCtx.WorkingDir},
	})
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	if err := requireObject(taskRequestExecute, t.pluginID, body); err != nil {
		return domain.ExecutionResult{}, err
	}
	message := body.Get("message").String()
	if body.Get("success").Bool() {
		return domain.Success(message), nil
	}
	return domain.Failure(message), nil
}

// display-order arrives as a string in older plugins and as a number in newer ones.
func displayOrder(value gjson.Result) int {
	switch value.Type {
	case gjson.Number:
		return int(value.Int())
	case gjson.String:
		n, err := strconv.Atoi(value.String())
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
