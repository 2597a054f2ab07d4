package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	plugindomain "extrt/internal/modules/plugin/domain"
)

var validate = validator.New()

// PluginInfo is what every extension point records about a loaded plugin.
type PluginInfo struct {
	ID               string                      `validate:"required"`
	Point            plugindomain.ExtensionPoint `validate:"required,oneof=task scm notification analytics elastic-agent"`
	Descriptor       plugindomain.PluginDescriptor
	Settings         plugindomain.Configuration
	StaticAssetsPath string
	Image            *Image
}

// Image is a plugin icon as sent by the plugin.
type Image struct {
	ContentType string `validate:"required"`
	Data        string `validate:"required,base64"`
}

func (p PluginInfo) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid plugin info: %w", err)
	}
	if p.Descriptor.ID != "" && p.Descriptor.ID != p.ID {
		return fmt.Errorf("plugin info id %s does not match descriptor id %s", p.ID, p.Descriptor.ID)
	}
	return nil
}

type TaskPluginInfo struct {
	PluginInfo
	DisplayValue string
	Template     string
}

type AnalyticsCapability struct {
	Type  string
	ID    string
	Title string
}

type AnalyticsPluginInfo struct {
	PluginInfo
	Capabilities []AnalyticsCapability
}

type NotificationPluginInfo struct {
	PluginInfo
	Subscriptions []string
}

type SCMPluginInfo struct {
	PluginInfo
	DisplayName string
	SCMSettings plugindomain.Configuration
}

type ElasticAgentPluginInfo struct {
	PluginInfo
	ProfileSettings      plugindomain.Configuration
	SupportsStatusReport bool
}

// TaskPreference is the cached default configuration and view of a task plugin.
type TaskPreference struct {
	Config plugindomain.Configuration
	View   plugindomain.TaskView
}
