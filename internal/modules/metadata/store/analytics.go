package store

import (
	metadomain "extrt/internal/modules/metadata/domain"
	plugindomain "extrt/internal/modules/plugin/domain"
)

type AnalyticsMetadataStore struct {
	*MetadataStore[metadomain.AnalyticsPluginInfo]
}

func NewAnalyticsMetadataStore() *AnalyticsMetadataStore {
	return &AnalyticsMetadataStore{NewMetadataStore[metadomain.AnalyticsPluginInfo](plugindomain.ExtensionAnalytics)}
}

// UpdateAssetsPath records where the plugin's static assets were unpacked.
func (s *AnalyticsMetadataStore) UpdateAssetsPath(pluginID, assetsPath string) error {
	return s.Update(pluginID, func(info *metadomain.AnalyticsPluginInfo) {
		info.StaticAssetsPath = assetsPath
	})
}
