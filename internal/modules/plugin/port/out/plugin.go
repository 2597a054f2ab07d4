package out

import (
	"context"

	"extrt/internal/modules/plugin/domain"
)

// Registry is the authoritative view of which plugins exist and which
// contracts they currently implement.
type Registry interface {
	Descriptor(ctx context.Context, pluginID string) (domain.PluginDescriptor, bool, error)
	HasDirectCapability(ctx context.Context, point domain.ExtensionPoint, pluginID string) (bool, error)
	HasMessageCapability(ctx context.Context, point domain.ExtensionPoint, pluginID string) (bool, error)
	// DirectInstance returns the loaded in-process implementation for a direct plugin.
	DirectInstance(ctx context.Context, point domain.ExtensionPoint, pluginID string) (any, bool, error)
}

// Catalog lists what is registered, for display.
type Catalog interface {
	List(ctx context.Context) ([]domain.RegisteredPlugin, error)
}

// Registrar removes plugins from the registry.
type Registrar interface {
	Unregister(ctx context.Context, pluginID string) error
}

// Connections releases whatever the transport holds open for a plugin.
type Connections interface {
	Close(pluginID string)
}

// Transport performs one request/response exchange with a message-based plugin.
type Transport interface {
	Exchange(ctx context.Context, pluginID string, request domain.Request) (domain.Response, error)
}
