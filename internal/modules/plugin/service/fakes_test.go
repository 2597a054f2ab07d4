package service_test

import (
	"context"
	"strconv"
	"sync"

	"extrt/internal/modules/plugin/domain"
)

type capabilityKey struct {
	point    domain.ExtensionPoint
	pluginID string
}

type fakeRegistry struct {
	mu          sync.Mutex
	descriptors map[string]domain.PluginDescriptor
	direct      map[capabilityKey]any
	message     map[capabilityKey]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		descriptors: map[string]domain.PluginDescriptor{},
		direct:      map[capabilityKey]any{},
		message:     map[capabilityKey]bool{},
	}
}

func (r *fakeRegistry) addDirect(point domain.ExtensionPoint, pluginID string, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[pluginID] = domain.PluginDescriptor{ID: pluginID, Name: pluginID}
	r.direct[capabilityKey{point, pluginID}] = instance
}

func (r *fakeRegistry) addMessage(point domain.ExtensionPoint, pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[pluginID] = domain.PluginDescriptor{ID: pluginID, Name: pluginID}
	r.message[capabilityKey{point, pluginID}] = true
}

func (r *fakeRegistry) addBare(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[pluginID] = domain.PluginDescriptor{ID: pluginID, Name: pluginID}
}

func (r *fakeRegistry) dropDirect(point domain.ExtensionPoint, pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.direct, capabilityKey{point, pluginID})
}

func (r *fakeRegistry) Descriptor(_ context.Context, pluginID string) (domain.PluginDescriptor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.descriptors[pluginID]
	return d, ok, nil
}

func (r *fakeRegistry) HasDirectCapability(_ context.Context, point domain.ExtensionPoint, pluginID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.direct[capabilityKey{point, pluginID}]
	return ok, nil
}

func (r *fakeRegistry) HasMessageCapability(_ context.Context, point domain.ExtensionPoint, pluginID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message[capabilityKey{point, pluginID}], nil
}

func (r *fakeRegistry) DirectInstance(_ context.Context, point domain.ExtensionPoint, pluginID string) (any, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	instance, ok := r.direct[capabilityKey{point, pluginID}]
	return instance, ok, nil
}

type exchangeFunc func(ctx context.Context, pluginID string, request domain.Request) (domain.Response, error)

type fakeTransport struct {
	mu       sync.Mutex
	handle   exchangeFunc
	requests []domain.Request
}

func newFakeTransport(handle exchangeFunc) *fakeTransport {
	return &fakeTransport{handle: handle}
}

// respondWith answers every request by name with a 200 and the given body.
func respondWith(bodies map[string]string) *fakeTransport {
	return newFakeTransport(func(_ context.Context, _ string, request domain.Request) (domain.Response, error) {
		body, ok := bodies[request.Name]
		if !ok {
			return domain.Response{Code: 404, Body: "unknown request"}, nil
		}
		return domain.Response{Code: domain.ResponseCodeSuccess, Body: body}, nil
	})
}

func (t *fakeTransport) Exchange(ctx context.Context, pluginID string, request domain.Request) (domain.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, request)
	handle := t.handle
	t.mu.Unlock()
	if handle == nil {
		return domain.Response{}, context.Canceled
	}
	return handle(ctx, pluginID, request)
}

func (t *fakeTransport) sent() []domain.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Request(nil), t.requests...)
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "req-" + strconv.Itoa(s.n)
}

// stubTask is a direct task plugin whose behaviour is set per test.
type stubTask struct {
	config   domain.Configuration
	view     domain.TaskView
	validate func(domain.Configuration) domain.ValidationResult
	execute  func(ctx context.Context, config domain.Configuration, taskCtx domain.TaskContext) (domain.ExecutionResult, error)
}

func (s *stubTask) Config(context.Context) (domain.Configuration, error) {
	return s.config, nil
}

func (s *stubTask) View(context.Context) (domain.TaskView, error) {
	return s.view, nil
}

func (s *stubTask) Validate(_ context.Context, config domain.Configuration) (domain.ValidationResult, error) {
	if s.validate == nil {
		return domain.ValidationResult{}, nil
	}
	return s.validate(config), nil
}

func (s *stubTask) Execute(ctx context.Context, config domain.Configuration, taskCtx domain.TaskContext) (domain.ExecutionResult, error) {
	if s.execute == nil {
		return domain.Success(), nil
	}
	return s.execute(ctx, config, taskCtx)
}

type stubNotifier struct {
	subscriptions []string
	notified      []string
}

func (s *stubNotifier) SubscribedNotifications(context.Context) ([]string, error) {
	return s.subscriptions, nil
}

func (s *stubNotifier) Notify(_ context.Context, name string, _ map[string]any) (domain.ExecutionResult, error) {
	s.notified = append(s.notified, name)
	return domain.Success("notified " + name), nil
}

func (s *stubNotifier) Validate(context.Context, domain.Configuration) (domain.ValidationResult, error) {
	return domain.ValidationResult{}, nil
}
