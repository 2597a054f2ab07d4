package domain

import "time"

// Capability is one extension point a plugin serves and through which contract.
type Capability struct {
	Point    ExtensionPoint
	Contract Contract
}

// RegisteredPlugin is a registry row with everything the plugin currently serves.
type RegisteredPlugin struct {
	Descriptor   PluginDescriptor
	Capabilities []Capability
	RegisteredAt time.Time
}

// Contracts returns the contracts declared for point, direct first.
func (p RegisteredPlugin) Contracts(point ExtensionPoint) []Contract {
	var direct, message bool
	for _, c := range p.Capabilities {
		if c.Point != point {
			continue
		}
		switch c.Contract {
		case ContractDirect:
			direct = true
		case ContractMessage:
			message = true
		}
	}
	var out []Contract
	if direct {
		out = append(out, ContractDirect)
	}
	if message {
		out = append(out, ContractMessage)
	}
	return out
}
