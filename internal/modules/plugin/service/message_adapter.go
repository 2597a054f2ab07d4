package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/logger"
)

// MessageAdapter drives the action against a facade that turns each call into
// request/response exchanges with the plugin.
type MessageAdapter[T any] struct {
	transport pluginout.Transport
	facade    FacadeFactory[T]
	timeout   time.Duration
	log       *logger.Logger
}

func NewMessageAdapter[T any](transport pluginout.Transport, facade FacadeFactory[T], timeout time.Duration, log *logger.Logger) *MessageAdapter[T] {
	return &MessageAdapter[T]{transport: transport, facade: facade, timeout: timeout, log: log}
}

type actionOutcome struct {
	result domain.ExecutionResult
	err    error
}

func (a *MessageAdapter[T]) Invoke(ctx context.Context, handle Handle, action Action[T]) domain.ExecutionResult {
	log := a.log.WithFields(map[string]any{"plugin_id": handle.PluginID, "extension": string(handle.Point), "contract": string(domain.ContractMessage)})

	started := time.Now()
	callCtx, cancel := callContext(ctx, a.timeout)
	defer cancel()

	ext := a.facade(handle.PluginID, a.transport)
	done := make(chan actionOutcome, 1)
	go func() {
		result, err := runAction(callCtx, ext, handle.Descriptor, action)
		done <- actionOutcome{result: result, err: err}
	}()

	var outcome actionOutcome
	select {
	case outcome = <-done:
	case <-callCtx.Done():
		select {
		case outcome = <-done:
		default:
			outcome = actionOutcome{err: callCtx.Err()}
		}
	}
	if outcome.err == nil {
		return outcome.result
	}

	if errors.Is(outcome.err, context.DeadlineExceeded) || errors.Is(outcome.err, domain.ErrPluginTimeout) {
		budget := a.timeout
		if deadline, ok := callCtx.Deadline(); ok {
			budget = deadline.Sub(started).Round(time.Millisecond)
		}
		err := fmt.Errorf("%w: plugin '%s' timed out after %s", domain.ErrPluginTimeout, handle.PluginID, budget)
		log.Error(err, "message invocation timed out")
		return domain.Failure(fmt.Sprintf("plugin '%s' timed out after %s", handle.PluginID, budget))
	}
	log.Error(outcome.err, "message invocation failed")
	return domain.Failure(outcome.err.Error())
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
