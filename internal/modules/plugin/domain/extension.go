package domain

import "fmt"

// ExtensionPoint is a category of pluggable capability.
type ExtensionPoint string

const (
	ExtensionTask         ExtensionPoint = "task"
	ExtensionSCM          ExtensionPoint = "scm"
	ExtensionNotification ExtensionPoint = "notification"
	ExtensionAnalytics    ExtensionPoint = "analytics"
	ExtensionElasticAgent ExtensionPoint = "elastic-agent"
)

func ExtensionPoints() []ExtensionPoint {
	return []ExtensionPoint{ExtensionTask, ExtensionSCM, ExtensionNotification, ExtensionAnalytics, ExtensionElasticAgent}
}

func (p ExtensionPoint) Validate() error {
	switch p {
	case ExtensionTask, ExtensionSCM, ExtensionNotification, ExtensionAnalytics, ExtensionElasticAgent:
		return nil
	default:
		return fmt.Errorf("unknown extension point: %s", p)
	}
}

// Contract is the invocation contract a plugin implements for one extension point.
type Contract string

const (
	ContractDirect  Contract = "direct"
	ContractMessage Contract = "message"
)

func (c Contract) Validate() error {
	switch c {
	case ContractDirect, ContractMessage:
		return nil
	default:
		return fmt.Errorf("unknown contract: %s", c)
	}
}

// PluginDescriptor is identity information handed to direct callbacks as-is.
type PluginDescriptor struct {
	ID         string
	Name       string
	Version    string
	Vendor     string
	BundlePath string
}

func (d PluginDescriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("plugin id is required")
	}
	return nil
}
