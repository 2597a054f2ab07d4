package service

import (
	"context"
	"fmt"
	"time"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/logger"
)

const DefaultMessageTimeout = 30 * time.Second

// Extension is what every extension type must offer so the gateway can
// validate configuration for it.
type Extension interface {
	Validate(ctx context.Context, config domain.Configuration) (domain.ValidationResult, error)
}

type options struct {
	timeout time.Duration
	log     *logger.Logger
}

type Option func(*options)

// WithTimeout bounds every message-based round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Gateway is the single entry point for invoking one extension point of any
// plugin. It holds no per-call state and is safe to share.
type Gateway[T Extension] struct {
	point    domain.ExtensionPoint
	resolver *Resolver
	direct   Adapter[T]
	message  Adapter[T]
	log      *logger.Logger
}

func NewGateway[T Extension](point domain.ExtensionPoint, registry pluginout.Registry, transport pluginout.Transport, facade FacadeFactory[T], opts ...Option) *Gateway[T] {
	o := options{timeout: DefaultMessageTimeout, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Gateway[T]{
		point:    point,
		resolver: NewResolver(registry),
		direct:   NewDirectAdapter[T](o.log),
		message:  NewMessageAdapter(transport, facade, o.timeout, o.log),
		log:      o.log,
	}
}

func (g *Gateway[T]) Point() domain.ExtensionPoint {
	return g.point
}

// Resolve reports which contract would serve pluginID right now.
func (g *Gateway[T]) Resolve(ctx context.Context, pluginID string) (domain.Contract, error) {
	handle, err := g.resolver.Resolve(ctx, pluginID, g.point)
	if err != nil {
		return "", err
	}
	return handle.Contract, nil
}

// Execute resolves pluginID once and dispatches the action to exactly one
// adapter. A resolution failure is returned as an error together with a
// failed result; adapter faults only ever show up in the result.
func (g *Gateway[T]) Execute(ctx context.Context, pluginID string, action Action[T]) (domain.ExecutionResult, error) {
	handle, err := g.resolver.Resolve(ctx, pluginID, g.point)
	if err != nil {
		g.log.WithFields(map[string]any{"plugin_id": pluginID, "extension": string(g.point)}).Warn(err.Error())
		return domain.Failure(err.Error()), err
	}

	var adapter Adapter[T]
	switch handle.Contract {
	case domain.ContractDirect:
		adapter = g.direct
	case domain.ContractMessage:
		adapter = g.message
	default:
		err := fmt.Errorf("unknown contract %q for plugin %s", handle.Contract, pluginID)
		return domain.Failure(err.Error()), err
	}
	return adapter.Invoke(ctx, handle, action), nil
}

// DoOn runs an action that produces no result of its own.
func (g *Gateway[T]) DoOn(ctx context.Context, pluginID string, action VoidAction[T]) (domain.ExecutionResult, error) {
	return g.Execute(ctx, pluginID, func(ctx context.Context, ext T, descriptor domain.PluginDescriptor) (domain.ExecutionResult, error) {
		if err := action(ctx, ext, descriptor); err != nil {
			return domain.ExecutionResult{}, err
		}
		return domain.Success(), nil
	})
}

// Validate asks the plugin to validate config. When the plugin cannot be
// reached the failure is reported as a validation error without a key.
func (g *Gateway[T]) Validate(ctx context.Context, pluginID string, config domain.Configuration) (domain.ValidationResult, error) {
	var validation domain.ValidationResult
	result, err := g.Execute(ctx, pluginID, func(ctx context.Context, ext T, _ domain.PluginDescriptor) (domain.ExecutionResult, error) {
		v, err := ext.Validate(ctx, config)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		validation = v
		return domain.Success(), nil
	})
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if !result.IsSuccessful() {
		var failed domain.ValidationResult
		failed.AddError(domain.ValidationError{Message: result.MessagesForDisplay()})
		return failed, nil
	}
	return validation, nil
}
