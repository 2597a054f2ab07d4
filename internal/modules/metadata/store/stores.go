package store

import (
	metadomain "extrt/internal/modules/metadata/domain"
	plugindomain "extrt/internal/modules/plugin/domain"
)

// Stores holds the one metadata store per extension point and the task
// preference store. Build it once per process and pass it around.
type Stores struct {
	Task            *MetadataStore[metadomain.TaskPluginInfo]
	SCM             *MetadataStore[metadomain.SCMPluginInfo]
	Notification    *MetadataStore[metadomain.NotificationPluginInfo]
	Analytics       *AnalyticsMetadataStore
	ElasticAgent    *MetadataStore[metadomain.ElasticAgentPluginInfo]
	TaskPreferences *PreferenceStore[metadomain.TaskPreference]
}

func NewStores() *Stores {
	return &Stores{
		Task:            NewMetadataStore[metadomain.TaskPluginInfo](plugindomain.ExtensionTask),
		SCM:             NewMetadataStore[metadomain.SCMPluginInfo](plugindomain.ExtensionSCM),
		Notification:    NewMetadataStore[metadomain.NotificationPluginInfo](plugindomain.ExtensionNotification),
		Analytics:       NewAnalyticsMetadataStore(),
		ElasticAgent:    NewMetadataStore[metadomain.ElasticAgentPluginInfo](plugindomain.ExtensionElasticAgent),
		TaskPreferences: NewPreferenceStore[metadomain.TaskPreference](),
	}
}

func (s *Stores) Has(point plugindomain.ExtensionPoint, pluginID string) bool {
	switch point {
	case plugindomain.ExtensionTask:
		return s.Task.Has(pluginID)
	case plugindomain.ExtensionSCM:
		return s.SCM.Has(pluginID)
	case plugindomain.ExtensionNotification:
		return s.Notification.Has(pluginID)
	case plugindomain.ExtensionAnalytics:
		return s.Analytics.Has(pluginID)
	case plugindomain.ExtensionElasticAgent:
		return s.ElasticAgent.Has(pluginID)
	default:
		return false
	}
}

func (s *Stores) PluginIDs(point plugindomain.ExtensionPoint) []string {
	switch point {
	case plugindomain.ExtensionTask:
		return s.Task.PluginIDs()
	case plugindomain.ExtensionSCM:
		return s.SCM.PluginIDs()
	case plugindomain.ExtensionNotification:
		return s.Notification.PluginIDs()
	case plugindomain.ExtensionAnalytics:
		return s.Analytics.PluginIDs()
	case plugindomain.ExtensionElasticAgent:
		return s.ElasticAgent.PluginIDs()
	default:
		return nil
	}
}

// RemoveAll drops everything known about pluginID. Used on unload.
func (s *Stores) RemoveAll(pluginID string) {
	s.Task.Remove(pluginID)
	s.SCM.Remove(pluginID)
	s.Notification.Remove(pluginID)
	s.Analytics.Remove(pluginID)
	s.ElasticAgent.Remove(pluginID)
	s.TaskPreferences.RemovePreferenceFor(pluginID)
}
