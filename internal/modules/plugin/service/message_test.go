package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"extrt/internal/modules/plugin/domain"
	"extrt/internal/modules/plugin/service"
)

func TestMessageTaskConfigAndView(t *testing.T) {
	t.Parallel()
	transport := respondWith(map[string]string{
		"configuration": `{
			"url": {"default-value": "http://localhost", "required": true, "display-name": "URL", "display-order": "1"},
			"token": {"secure": true, "display-order": 0}
		}`,
		"view": `{"displayValue": "Curl", "template": "<div>curl</div>"}`,
	})
	task := service.NewMessageTaskFactory(&sequenceIDs{})("curl", transport)

	config, err := task.Config(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"token", "url"}, keysOf(config.Properties()))
	url, ok := config.Property("url")
	require.True(t, ok)
	require.Equal(t, domain.Property{Key: "url", DefaultValue: "http://localhost", Required: true, DisplayName: "URL", DisplayOrder: 1}, url)
	token, _ := config.Property("token")
	require.True(t, token.Secure)
	require.Equal(t, "http://localhost", config.Value("url"))

	view, err := task.View(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.TaskView{DisplayValue: "Curl", Template: "<div>curl</div>"}, view)

	sent := transport.sent()
	require.Len(t, sent, 2)
	require.Equal(t, domain.Request{ID: "req-1", Extension: domain.ExtensionTask, Version: "1.0", Name: "configuration"}, sent[0])
	require.Equal(t, "view", sent[1].Name)
	require.Equal(t, "req-2", sent[1].ID)
}

func TestMessageTaskExecuteRequestBody(t *testing.T) {
	t.Parallel()
	transport := respondWith(map[string]string{"execute": `{"success": true, "message": "fetched"}`})
	task := service.NewMessageTaskFactory(&sequenceIDs{})("curl", transport)

	config := domain.NewConfiguration(domain.Property{Key: "url", Value: "http://example.com"})
	result, err := task.Execute(context.Background(), config, domain.TaskContext{
		WorkingDir:  "/work/pipeline",
		Environment: map[string]string{"GO_STAGE": "build"},
	})
	require.NoError(t, err)
	require.True(t, result.IsSuccessful())
	require.Equal(t, []string{"fetched"}, result.Messages())

	body := gjson.Parse(transport.sent()[0].Body)
	require.Equal(t, "http://example.com", body.Get("config.url.value").String())
	require.Equal(t, "/work/pipeline", body.Get("context.workingDirectory").String())
	require.Equal(t, "build", body.Get("context.environmentVariables.GO_STAGE").String())
}

func TestMessageTaskExecuteWithoutEnvironmentSendsEmptyObject(t *testing.T) {
	t.Parallel()
	transport := respondWith(map[string]string{"execute": `{"success": false}`})
	task := service.NewMessageTaskFactory(&sequenceIDs{})("curl", transport)

	result, err := task.Execute(context.Background(), domain.NewConfiguration(), domain.TaskContext{})
	require.NoError(t, err)
	require.False(t, result.IsSuccessful())
	require.Empty(t, result.Messages())

	body := gjson.Parse(transport.sent()[0].Body)
	require.True(t, body.Get("context.environmentVariables").IsObject())
}

func TestMessageNotifier(t *testing.T) {
	t.Parallel()
	transport := respondWith(map[string]string{
		"notifications-interested-in": `{"notifications": ["stage-status", "agent-status"]}`,
		"stage-status":                `{"status": "success", "messages": ["sent to #builds"]}`,
		"agent-status":                `{"status": "failure", "messages": ["webhook rejected"]}`,
		"validate-configuration":      `[{"key": "webhook", "message": "Webhook is required"}]`,
	})
	notifier := service.NewMessageNotifierFactory(&sequenceIDs{})("slack", transport)
	ctx := context.Background()

	subs, err := notifier.SubscribedNotifications(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"stage-status", "agent-status"}, subs)

	ok, err := notifier.Notify(ctx, "stage-status", map[string]any{"pipeline": "build"})
	require.NoError(t, err)
	require.True(t, ok.IsSuccessful())
	require.Equal(t, []string{"sent to #builds"}, ok.Messages())

	failed, err := notifier.Notify(ctx, "agent-status", nil)
	require.NoError(t, err)
	require.False(t, failed.IsSuccessful())

	validation, err := notifier.Validate(ctx, domain.NewConfiguration())
	require.NoError(t, err)
	require.Equal(t, []domain.ValidationError{{Key: "webhook", Message: "Webhook is required"}}, validation.Errors())

	sent := transport.sent()
	require.Equal(t, domain.ExtensionNotification, sent[0].Extension)
	require.Equal(t, "build", gjson.Get(sent[1].Body, "pipeline").String())
	require.Equal(t, "{}", sent[2].Body)
	require.True(t, gjson.Get(sent[3].Body, "plugin-settings").IsObject())
}

func TestMessageNotifierValidateRejectsNonList(t *testing.T) {
	t.Parallel()
	transport := respondWith(map[string]string{"validate-configuration": `{"key": "webhook"}`})
	notifier := service.NewMessageNotifierFactory(&sequenceIDs{})("slack", transport)

	_, err := notifier.Validate(context.Background(), domain.NewConfiguration())
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestNotificationExtension(t *testing.T) {
	t.Parallel()
	registry := newFakeRegistry()
	direct := &stubNotifier{subscriptions: []string{"stage-status"}}
	registry.addDirect(domain.ExtensionNotification, "email", direct)
	registry.addMessage(domain.ExtensionNotification, "slack")
	transport := respondWith(map[string]string{"notifications-interested-in": `{"notifications": ["agent-status"]}`})
	notifications := service.NewNotificationExtension(registry, transport, &sequenceIDs{})
	ctx := context.Background()

	subs, err := notifications.SubscribedNotifications(ctx, "email")
	require.NoError(t, err)
	require.Equal(t, []string{"stage-status"}, subs)

	subs, err = notifications.SubscribedNotifications(ctx, "slack")
	require.NoError(t, err)
	require.Equal(t, []string{"agent-status"}, subs)

	result, err := notifications.Notify(ctx, "email", "stage-status", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"notified stage-status"}, result.Messages())

	_, err = notifications.SubscribedNotifications(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrPluginNotFound)

	// slack has no handler for stage-status and answers 404
	failed, err := notifications.Notify(ctx, "slack", "stage-status", nil)
	require.NoError(t, err)
	require.False(t, failed.IsSuccessful())
}

func keysOf(props []domain.Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.Key)
	}
	return out
}
