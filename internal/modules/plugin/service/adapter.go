package service

import (
	"context"
	"fmt"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
)

// Action is caller logic run against a plugin, whichever contract serves it.
type Action[T any] func(ctx context.Context, ext T, descriptor domain.PluginDescriptor) (domain.ExecutionResult, error)

// VoidAction is an Action without a result of its own.
type VoidAction[T any] func(ctx context.Context, ext T, descriptor domain.PluginDescriptor) error

// FacadeFactory builds the message-backed implementation of T for one plugin.
type FacadeFactory[T any] func(pluginID string, transport pluginout.Transport) T

// Adapter invokes an action through one contract. Faults never escape Invoke,
// they come back as a failed ExecutionResult.
type Adapter[T any] interface {
	Invoke(ctx context.Context, handle Handle, action Action[T]) domain.ExecutionResult
}

func runAction[T any](ctx context.Context, ext T, descriptor domain.PluginDescriptor, action Action[T]) (result domain.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrPluginPanic, r)
		}
	}()
	return action(ctx, ext, descriptor)
}
