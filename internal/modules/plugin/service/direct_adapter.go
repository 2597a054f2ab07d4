package service

import (
	"context"
	"fmt"

	"extrt/internal/modules/plugin/domain"
	"extrt/internal/platform/logger"
)

// DirectAdapter calls the in-process plugin instance captured by the resolver.
type DirectAdapter[T any] struct {
	log *logger.Logger
}

func NewDirectAdapter[T any](log *logger.Logger) *DirectAdapter[T] {
	return &DirectAdapter[T]{log: log}
}

func (a *DirectAdapter[T]) Invoke(ctx context.Context, handle Handle, action Action[T]) domain.ExecutionResult {
	log := a.log.WithFields(map[string]any{"plugin_id": handle.PluginID, "extension": string(handle.Point), "contract": string(domain.ContractDirect)})

	ext, ok := handle.instance.(T)
	if !ok {
		err := fmt.Errorf("%w: plugin '%s' for %s", domain.ErrInstanceMismatch, handle.PluginID, handle.Point)
		log.Error(err, "direct invocation rejected")
		return domain.Failure(err.Error())
	}
	result, err := runAction(ctx, ext, handle.Descriptor, action)
	if err != nil {
		log.Error(err, "direct invocation failed")
		return domain.Failure(err.Error())
	}
	return result
}
