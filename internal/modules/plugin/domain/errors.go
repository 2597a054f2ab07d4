package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPluginNotFound         = errors.New("plugin not found")
	ErrUnsupportedExtension   = errors.New("plugin implements neither extension contract")
	ErrPluginTimeout          = errors.New("plugin timeout")
	ErrMalformedResponse      = errors.New("malformed plugin response")
	ErrUnexpectedResponseCode = errors.New("unexpected plugin response code")
	ErrPluginPanic            = errors.New("plugin panicked")
	ErrInstanceMismatch       = errors.New("plugin instance does not implement extension")
)

// PluginNotFoundError means the registry does not know the plugin id at all.
type PluginNotFoundError struct {
	PluginID string
}

func (e *PluginNotFoundError) Error() string {
	return fmt.Sprintf("Associated plugin '%s' not found. Please contact the admin to install the plugin.", e.PluginID)
}

func (e *PluginNotFoundError) Is(target error) bool {
	return target == ErrPluginNotFound
}

// UnsupportedExtensionError means the plugin exists but serves the extension
// point through neither the direct nor the message-based contract.
type UnsupportedExtensionError struct {
	PluginID string
	Point    ExtensionPoint
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("Plugin should use either message-based or api-based extension. Plugin-id: %s", e.PluginID)
}

func (e *UnsupportedExtensionError) Is(target error) bool {
	return target == ErrUnsupportedExtension
}

// ExecutionFailedError carries a failed ExecutionResult where an error is expected.
type ExecutionFailedError struct {
	Result ExecutionResult
}

func (e *ExecutionFailedError) Error() string {
	if msg := e.Result.MessagesForDisplay(); msg != "" {
		return msg
	}
	return "plugin execution failed"
}
