package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pluginrpc "extrt/internal/modules/plugin/adapter/out/rpc"
	"extrt/internal/modules/plugin/domain"
	"extrt/internal/platform/logger"
)

const defaultStartTimeout = 3 * time.Second

type runningPlugin struct {
	client *plugin.Client
	rpc    pluginrpc.ExtensionClient
}

// GRPCTransport exchanges messages with out-of-process plugins over
// go-plugin gRPC. Each plugin binary is started on first use and kept
// running until Close or Shutdown.
type GRPCTransport struct {
	startTimeout time.Duration
	log          *logger.Logger

	starts singleflight.Group

	mu        sync.Mutex
	manifests map[string]domain.Manifest
	running   map[string]*runningPlugin
	closed    bool
}

func NewGRPCTransport(log *logger.Logger) *GRPCTransport {
	if log == nil {
		log = logger.Nop()
	}
	return &GRPCTransport{
		startTimeout: defaultStartTimeout,
		log:          log,
		manifests:    map[string]domain.Manifest{},
		running:      map[string]*runningPlugin{},
	}
}

// Add makes the manifest's binary reachable under its plugin id.
func (t *GRPCTransport) Add(manifest domain.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return fmt.Errorf("plugin %s: %w", manifest.ID, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manifests[manifest.ID] = manifest
	return nil
}

func (t *GRPCTransport) Exchange(ctx context.Context, pluginID string, request domain.Request) (domain.Response, error) {
	running, err := t.connect(ctx, pluginID)
	if err != nil {
		return domain.Response{}, err
	}

	reply, err := running.rpc.Exchange(ctx, &pluginrpc.Envelope{
		ID:        request.ID,
		Extension: string(request.Extension),
		Version:   request.Version,
		Name:      request.Name,
		Body:      request.Body,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
			return domain.Response{}, fmt.Errorf("%w: %s request to %s", domain.ErrPluginTimeout, request.Name, pluginID)
		}
		if running.client.Exited() {
			t.drop(pluginID, running)
		}
		return domain.Response{}, fmt.Errorf("exchange %s with %s: %w", request.Name, pluginID, err)
	}
	return domain.Response{Code: int(reply.Code), Body: reply.Body}, nil
}

// connect returns the running client for pluginID, starting the binary if
// needed. Starts run outside t.mu and are shared per id, so a slow plugin
// only delays its own callers.
func (t *GRPCTransport) connect(ctx context.Context, pluginID string) (*runningPlugin, error) {
	t.mu.Lock()
	if running, ok := t.running[pluginID]; ok && !running.client.Exited() {
		t.mu.Unlock()
		return running, nil
	}
	manifest, ok := t.manifests[pluginID]
	closed := t.closed
	t.mu.Unlock()
	if !ok || closed {
		return nil, fmt.Errorf("%w: no binary known for %s", domain.ErrPluginNotFound, pluginID)
	}

	started := t.starts.DoChan(pluginID, func() (any, error) {
		return t.start(pluginID, manifest)
	})
	select {
	case res := <-started:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*runningPlugin), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: starting %s", domain.ErrPluginTimeout, pluginID)
		}
		return nil, ctx.Err()
	}
}

func (t *GRPCTransport) start(pluginID string, manifest domain.Manifest) (*runningPlugin, error) {
	t.mu.Lock()
	if running, ok := t.running[pluginID]; ok && !running.client.Exited() {
		t.mu.Unlock()
		return running, nil
	}
	t.mu.Unlock()

	if manifest.SHA256 != "" {
		if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
			return nil, err
		}
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     t.startTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start plugin %s: %w", pluginID, err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense plugin %s: %w", pluginID, err)
	}
	typed, ok := raw.(pluginrpc.ExtensionClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %s: rpc client type mismatch", pluginID)
	}

	running := &runningPlugin{client: client, rpc: typed}
	t.mu.Lock()
	_, known := t.manifests[pluginID]
	if t.closed || !known {
		t.mu.Unlock()
		client.Kill()
		return nil, fmt.Errorf("%w: %s was closed while starting", domain.ErrPluginNotFound, pluginID)
	}
	t.running[pluginID] = running
	t.mu.Unlock()
	t.log.WithFields(map[string]any{"plugin_id": pluginID, "binary": manifest.Binary}).Debug("plugin process started")
	return running, nil
}

func (t *GRPCTransport) drop(pluginID string, running *runningPlugin) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running[pluginID] == running {
		delete(t.running, pluginID)
	}
}

// Close stops the plugin process and forgets its manifest.
func (t *GRPCTransport) Close(pluginID string) {
	t.mu.Lock()
	running := t.running[pluginID]
	delete(t.running, pluginID)
	delete(t.manifests, pluginID)
	t.mu.Unlock()
	if running != nil {
		running.client.Kill()
	}
}

// Shutdown stops every plugin process.
func (t *GRPCTransport) Shutdown() {
	t.mu.Lock()
	running := t.running
	t.running = map[string]*runningPlugin{}
	t.closed = true
	t.mu.Unlock()
	for _, r := range running {
		r.client.Kill()
	}
}

func checksumMatches(path, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plugin binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if actual := hex.EncodeToString(hash[:]); actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}
