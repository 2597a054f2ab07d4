package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-plugin"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	pluginrpc "extrt/internal/modules/plugin/adapter/out/rpc"
)

// server is a message-based task plugin that echoes its configured message.
type server struct{}

func (s *server) Exchange(_ context.Context, in *pluginrpc.Envelope) (*pluginrpc.Envelope, error) {
	if in.Extension != "task" {
		return reply(in, 400, map[string]string{"error": "unsupported extension " + in.Extension})
	}
	switch in.Name {
	case "configuration":
		return reply(in, 200, map[string]any{
			"message":   map[string]any{"required": true, "display-name": "Message", "display-order": "0"},
			"uppercase": map[string]any{"default-value": "false", "display-name": "Upper case", "display-order": "1"},
		})
	case "view":
		return reply(in, 200, map[string]string{
			"displayValue": "Echo",
			"template":     `<div class="form_item_block"><label>Message:</label><input ng-model="message"/></div>`,
		})
	case "validate":
		out := `{"errors":{}}`
		if strings.TrimSpace(gjson.Get(in.Body, "message.value").String()) == "" {
			out, _ = sjson.Set(out, "errors.message", "Message cannot be empty")
		}
		return replyRaw(in, 200, out), nil
	case "execute":
		body := gjson.Parse(in.Body)
		message := body.Get("config.message.value").String()
		out, _ := sjson.Set("", "success", message != "")
		if message == "" {
			out, _ = sjson.Set(out, "message", "Message cannot be empty")
			return replyRaw(in, 200, out), nil
		}
		if body.Get("config.uppercase.value").Bool() {
			message = strings.ToUpper(message)
		}
		out, _ = sjson.Set(out, "message", fmt.Sprintf("echo %q in %s", message, body.Get("context.workingDirectory").String()))
		return replyRaw(in, 200, out), nil
	default:
		return reply(in, 404, map[string]string{"error": "unknown request " + in.Name})
	}
}

func reply(in *pluginrpc.Envelope, code int32, body any) (*pluginrpc.Envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return replyRaw(in, code, string(raw)), nil
}

func replyRaw(in *pluginrpc.Envelope, code int32, body string) *pluginrpc.Envelope {
	return &pluginrpc.Envelope{ID: in.ID, Extension: in.Extension, Version: in.Version, Name: in.Name, Body: body, Code: code}
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
