package service

import (
	"context"
	"fmt"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
)

// Handle is the outcome of resolution: which contract serves the call, plus
// the direct instance captured at resolution time.
type Handle struct {
	PluginID   string
	Point      domain.ExtensionPoint
	Contract   domain.Contract
	Descriptor domain.PluginDescriptor
	instance   any
}

// Resolver decides which contract a plugin uses for an extension point. It
// keeps no state of its own, every call reads the registry.
type Resolver struct {
	registry pluginout.Registry
}

func NewResolver(registry pluginout.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve checks direct support before message support. A plugin answering
// yes to both during a protocol migration is served directly.
func (r *Resolver) Resolve(ctx context.Context, pluginID string, point domain.ExtensionPoint) (Handle, error) {
	descriptor, ok, err := r.registry.Descriptor(ctx, pluginID)
	if err != nil {
		return Handle{}, fmt.Errorf("look up plugin %s: %w", pluginID, err)
	}
	if !ok {
		return Handle{}, &domain.PluginNotFoundError{PluginID: pluginID}
	}
	handle := Handle{PluginID: pluginID, Point: point, Descriptor: descriptor}

	direct, err := r.registry.HasDirectCapability(ctx, point, pluginID)
	if err != nil {
		return Handle{}, fmt.Errorf("check direct capability of %s: %w", pluginID, err)
	}
	if direct {
		instance, ok, err := r.registry.DirectInstance(ctx, point, pluginID)
		if err != nil {
			return Handle{}, fmt.Errorf("load direct instance of %s: %w", pluginID, err)
		}
		if !ok {
			// unloaded between the capability check and the lookup
			return Handle{}, &domain.PluginNotFoundError{PluginID: pluginID}
		}
		handle.Contract = domain.ContractDirect
		handle.instance = instance
		return handle, nil
	}

	message, err := r.registry.HasMessageCapability(ctx, point, pluginID)
	if err != nil {
		return Handle{}, fmt.Errorf("check message capability of %s: %w", pluginID, err)
	}
	if message {
		handle.Contract = domain.ContractMessage
		return handle, nil
	}
	return Handle{}, &domain.UnsupportedExtensionError{PluginID: pluginID, Point: point}
}
