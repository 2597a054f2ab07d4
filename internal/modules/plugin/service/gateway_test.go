package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"extrt/internal/modules/plugin/domain"
	"extrt/internal/modules/plugin/service"
)

func newTasks(registry *fakeRegistry, transport *fakeTransport, opts ...service.Option) *service.TaskExtension {
	return service.NewTaskExtension(registry, transport, &sequenceIDs{}, opts...)
}

func TestDirectTaskReturnsActionResultUnchanged(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addDirect(domain.ExtensionTask, "api-task", &stubTask{})
	transport := newFakeTransport(nil)
	tasks := newTasks(registry, transport)

	want := domain.Success("built", "uploaded")
	got, err := tasks.Execute(context.Background(), "api-task", func(_ context.Context, _ domain.Task, descriptor domain.PluginDescriptor) (domain.ExecutionResult, error) {
		require.Equal(t, "api-task", descriptor.ID)
		return want, nil
	})

	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Empty(t, transport.sent())
}

func TestMessageTaskTimeoutBecomesFailure(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addMessage(domain.ExtensionTask, "message-task")
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	// ignores ctx on purpose: the gateway must still return on time
	transport := newFakeTransport(func(context.Context, string, domain.Request) (domain.Response, error) {
		<-release
		return domain.Response{Code: domain.ResponseCodeSuccess, Body: `{"success":true}`}, nil
	})
	tasks := newTasks(registry, transport, service.WithTimeout(50*time.Millisecond))

	started := time.Now()
	got, err := tasks.Run(context.Background(), "message-task", domain.NewConfiguration(), domain.TaskContext{})

	require.NoError(t, err)
	require.False(t, got.IsSuccessful())
	require.Contains(t, got.MessagesForDisplay(), "timed out")
	require.Less(t, time.Since(started), 2*time.Second)
}

func TestTransportDeadlineIsReportedAsTimeout(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addMessage(domain.ExtensionTask, "message-task")
	transport := newFakeTransport(func(ctx context.Context, _ string, _ domain.Request) (domain.Response, error) {
		<-ctx.Done()
		return domain.Response{}, ctx.Err()
	})
	tasks := newTasks(registry, transport, service.WithTimeout(20*time.Millisecond))

	got, err := tasks.Run(context.Background(), "message-task", domain.NewConfiguration(), domain.TaskContext{})

	require.NoError(t, err)
	require.False(t, got.IsSuccessful())
	require.Contains(t, got.MessagesForDisplay(), "timed out")
}

func TestTimeoutReportsTheCallerDeadline(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addMessage(domain.ExtensionTask, "message-task")
	transport := newFakeTransport(func(ctx context.Context, _ string, _ domain.Request) (domain.Response, error) {
		<-ctx.Done()
		return domain.Response{}, ctx.Err()
	})
	tasks := newTasks(registry, transport, service.WithTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	got, err := tasks.Run(ctx, "message-task", domain.NewConfiguration(), domain.TaskContext{})

	require.NoError(t, err)
	require.False(t, got.IsSuccessful())
	require.Contains(t, got.MessagesForDisplay(), "timed out after")
	require.NotContains(t, got.MessagesForDisplay(), "1m0s")
}

func TestUnknownPluginIsNotFound(t *testing.T) {
	t.Parallel()
	tasks := newTasks(newFakeRegistry(), newFakeTransport(nil))

	called := false
	got, err := tasks.Execute(context.Background(), "ghost", func(context.Context, domain.Task, domain.PluginDescriptor) (domain.ExecutionResult, error) {
		called = true
		return domain.Success(), nil
	})

	require.ErrorIs(t, err, domain.ErrPluginNotFound)
	var notFound *domain.PluginNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "ghost", notFound.PluginID)
	require.Contains(t, err.Error(), "ghost")
	require.False(t, got.IsSuccessful())
	require.False(t, called)
}

func TestPluginWithoutEitherContractIsUnsupported(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addBare("legacy")
	registry.addMessage(domain.ExtensionNotification, "legacy")
	tasks := newTasks(registry, newFakeTransport(nil))

	_, err := tasks.Run(context.Background(), "legacy", domain.NewConfiguration(), domain.TaskContext{})

	require.ErrorIs(t, err, domain.ErrUnsupportedExtension)
	require.Equal(t, "Plugin should use either message-based or api-based extension. Plugin-id: legacy", err.Error())
}

func TestDirectWinsWhenBothContractsAreDeclared(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addDirect(domain.ExtensionTask, "migrating", &stubTask{execute: func(context.Context, domain.Configuration, domain.TaskContext) (domain.ExecutionResult, error) {
		return domain.Success("direct"), nil
	}})
	registry.addMessage(domain.ExtensionTask, "migrating")
	transport := respondWith(map[string]string{"execute": `{"success":true,"message":"message"}`})
	tasks := newTasks(registry, transport)

	contract, err := tasks.Contract(context.Background(), "migrating")
	require.NoError(t, err)
	require.Equal(t, domain.ContractDirect, contract)

	got, err := tasks.Run(context.Background(), "migrating", domain.NewConfiguration(), domain.TaskContext{})
	require.NoError(t, err)
	require.Equal(t, []string{"direct"}, got.Messages())
	require.Empty(t, transport.sent())
}

func TestResolutionIsRepeatedOnEveryCall(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addDirect(domain.ExtensionTask, "migrating", &stubTask{execute: func(context.Context, domain.Configuration, domain.TaskContext) (domain.ExecutionResult, error) {
		return domain.Success("direct"), nil
	}})
	registry.addMessage(domain.ExtensionTask, "migrating")
	transport := respondWith(map[string]string{"execute": `{"success":true,"message":"message"}`})
	tasks := newTasks(registry, transport)

	first, err := tasks.Run(context.Background(), "migrating", domain.NewConfiguration(), domain.TaskContext{})
	require.NoError(t, err)
	require.Equal(t, []string{"direct"}, first.Messages())

	registry.dropDirect(domain.ExtensionTask, "migrating")

	second, err := tasks.Run(context.Background(), "migrating", domain.NewConfiguration(), domain.TaskContext{})
	require.NoError(t, err)
	require.Equal(t, []string{"message"}, second.Messages())
	require.Len(t, transport.sent(), 1)
}

func TestDirectFaultsBecomeFailures(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		action service.Action[domain.Task]
		want   string
	}{
		"error": {
			action: func(context.Context, domain.Task, domain.PluginDescriptor) (domain.ExecutionResult, error) {
				return domain.ExecutionResult{}, errors.New("disk full")
			},
			want: "disk full",
		},
		"panic": {
			action: func(context.Context, domain.Task, domain.PluginDescriptor) (domain.ExecutionResult, error) {
				panic("nil map")
			},
			want: "plugin panicked: nil map",
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			registry := newFakeRegistry()
			registry.addDirect(domain.ExtensionTask, "api-task", &stubTask{})
			tasks := newTasks(registry, newFakeTransport(nil))

			got, err := tasks.Execute(context.Background(), "api-task", tc.action)

			require.NoError(t, err)
			require.False(t, got.IsSuccessful())
			require.Equal(t, tc.want, got.MessagesForDisplay())
		})
	}
}

func TestMessageFaultsBecomeFailures(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		response domain.Response
		err      error
		want     string
	}{
		"non 200":        {response: domain.Response{Code: 500, Body: "boom"}, want: "unexpected plugin response code"},
		"malformed body": {response: domain.Response{Code: 200, Body: "{not json"}, want: "malformed plugin response"},
		"not an object":  {response: domain.Response{Code: 200, Body: `["a"]`}, want: "is not an object"},
		"transport down": {err: errors.New("connection refused"), want: "connection refused"},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			registry := newFakeRegistry()
			registry.addMessage(domain.ExtensionTask, "message-task")
			transport := newFakeTransport(func(context.Context, string, domain.Request) (domain.Response, error) {
				return tc.response, tc.err
			})
			tasks := newTasks(registry, transport)

			got, err := tasks.Run(context.Background(), "message-task", domain.NewConfiguration(), domain.TaskContext{})

			require.NoError(t, err)
			require.False(t, got.IsSuccessful())
			require.Contains(t, got.MessagesForDisplay(), tc.want)
		})
	}
}

func TestDirectAndMessageResultsHaveTheSameShape(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addDirect(domain.ExtensionTask, "api-task", &stubTask{execute: func(context.Context, domain.Configuration, domain.TaskContext) (domain.ExecutionResult, error) {
		return domain.Failure("exit status 2"), nil
	}})
	registry.addMessage(domain.ExtensionTask, "message-task")
	transport := respondWith(map[string]string{"execute": `{"success":false,"message":"exit status 2"}`})
	tasks := newTasks(registry, transport)

	direct, err := tasks.Run(context.Background(), "api-task", domain.NewConfiguration(), domain.TaskContext{})
	require.NoError(t, err)
	message, err := tasks.Run(context.Background(), "message-task", domain.NewConfiguration(), domain.TaskContext{})
	require.NoError(t, err)

	require.Equal(t, direct, message)
}

func TestDoOnTaskReportsSuccessOrFailure(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	task := &stubTask{view: domain.TaskView{DisplayValue: "Curl"}}
	registry.addDirect(domain.ExtensionTask, "api-task", task)
	tasks := newTasks(registry, newFakeTransport(nil))

	var seen string
	got, err := tasks.DoOnTask(context.Background(), "api-task", func(ctx context.Context, task domain.Task, _ domain.PluginDescriptor) error {
		view, err := task.View(ctx)
		seen = view.DisplayValue
		return err
	})
	require.NoError(t, err)
	require.True(t, got.IsSuccessful())
	require.Equal(t, "Curl", seen)

	got, err = tasks.DoOnTask(context.Background(), "api-task", func(context.Context, domain.Task, domain.PluginDescriptor) error {
		return errors.New("view unavailable")
	})
	require.NoError(t, err)
	require.False(t, got.IsSuccessful())
	require.Equal(t, []string{"view unavailable"}, got.Messages())
}

func TestValidateThroughEitherContract(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addDirect(domain.ExtensionTask, "api-task", &stubTask{validate: func(config domain.Configuration) domain.ValidationResult {
		var result domain.ValidationResult
		if config.Value("url") == "" {
			result.AddError(domain.ValidationError{Key: "url", Message: "URL is required"})
		}
		return result
	}})
	registry.addMessage(domain.ExtensionTask, "message-task")
	transport := respondWith(map[string]string{"validate": `{"errors":{"url":"URL is required"}}`})
	tasks := newTasks(registry, transport)

	for _, pluginID := range []string{"api-task", "message-task"} {
		got, err := tasks.Validate(context.Background(), pluginID, domain.NewConfiguration())
		require.NoError(t, err, pluginID)
		require.False(t, got.IsSuccessful(), pluginID)
		require.Equal(t, []domain.ValidationError{{Key: "url", Message: "URL is required"}}, got.Errors(), pluginID)
	}

	ok, err := tasks.Validate(context.Background(), "api-task", domain.NewConfiguration().WithValue("url", "http://x"))
	require.NoError(t, err)
	require.True(t, ok.IsSuccessful())
}

func TestValidateReportsUnreachablePluginAsKeylessError(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addMessage(domain.ExtensionTask, "message-task")
	transport := newFakeTransport(func(context.Context, string, domain.Request) (domain.Response, error) {
		return domain.Response{Code: 503, Body: "starting"}, nil
	})
	tasks := newTasks(registry, transport)

	got, err := tasks.Validate(context.Background(), "message-task", domain.NewConfiguration())

	require.NoError(t, err)
	require.Len(t, got.Errors(), 1)
	require.Empty(t, got.Errors()[0].Key)
	require.Contains(t, got.Errors()[0].Message, "503")
}

func TestDirectInstanceOfWrongTypeIsRejected(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	registry.addDirect(domain.ExtensionTask, "confused", &stubNotifier{})
	tasks := newTasks(registry, newFakeTransport(nil))

	got, err := tasks.Run(context.Background(), "confused", domain.NewConfiguration(), domain.TaskContext{})

	require.NoError(t, err)
	require.False(t, got.IsSuccessful())
	require.Contains(t, got.MessagesForDisplay(), domain.ErrInstanceMismatch.Error())
}
