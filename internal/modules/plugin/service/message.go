package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"extrt/internal/modules/plugin/domain"
	pluginout "extrt/internal/modules/plugin/port/out"
	"extrt/internal/platform/id"
)

// messenger sends requests for one plugin and extension version.
type messenger struct {
	pluginID  string
	point     domain.ExtensionPoint
	version   string
	transport pluginout.Transport
	ids       id.Generator
}

func (m messenger) submit(ctx context.Context, name string, payload any) (gjson.Result, error) {
	request := domain.Request{
		ID:        m.ids.New(),
		Extension: m.point,
		Version:   m.version,
		Name:      name,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("encode %s request: %w", name, err)
		}
		request.Body = string(raw)
	}

	response, err := m.transport.Exchange(ctx, m.pluginID, request)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrPluginTimeout) {
			return gjson.Result{}, fmt.Errorf("%w: %s request to plugin '%s'", domain.ErrPluginTimeout, name, m.pluginID)
		}
		return gjson.Result{}, fmt.Errorf("%s request to plugin '%s': %w", name, m.pluginID, err)
	}
	if response.Code != domain.ResponseCodeSuccess {
		return gjson.Result{}, fmt.Errorf("%w: plugin '%s' answered %s with %d: %s", domain.ErrUnexpectedResponseCode, m.pluginID, name, response.Code, response.Body)
	}
	if !gjson.Valid(response.Body) {
		return gjson.Result{}, fmt.Errorf("%w: %s response from plugin '%s'", domain.ErrMalformedResponse, name, m.pluginID)
	}
	return gjson.Parse(response.Body), nil
}

func requireObject(name, pluginID string, body gjson.Result) error {
	if !body.IsObject() {
		return fmt.Errorf("%w: %s response from plugin '%s' is not an object", domain.ErrMalformedResponse, name, pluginID)
	}
	return nil
}

type propertyValue struct {
	Value string `json:"value"`
}

func configurationPayload(config domain.Configuration) map[string]propertyValue {
	out := make(map[string]propertyValue, config.Len())
	for _, p := range config.Properties() {
		out[p.Key] = propertyValue{Value: p.Value}
	}
	return out
}
