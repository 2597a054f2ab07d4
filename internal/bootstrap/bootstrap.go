package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	metadatastore "extrt/internal/modules/metadata/store"
	plugininadapter "extrt/internal/modules/plugin/adapter/in"
	pluginoutadapter "extrt/internal/modules/plugin/adapter/out"
	"extrt/internal/modules/plugin/adapter/out/builtin"
	plugindomain "extrt/internal/modules/plugin/domain"
	pluginservice "extrt/internal/modules/plugin/service"
	pluginusecase "extrt/internal/modules/plugin/usecase"
	"extrt/internal/platform/clock"
	"extrt/internal/platform/config"
	"extrt/internal/platform/id"
	"extrt/internal/platform/logger"
	"extrt/internal/platform/result"
)

const loadConcurrency = 4

type App struct {
	PluginCLI plugininadapter.CLIHandler
	Log       *logger.Logger

	registry  *pluginoutadapter.SQLiteRegistry
	transport *pluginoutadapter.GRPCTransport
}

// New wires the runtime, registers the builtin and configured plugins and
// loads their metadata. A plugin that fails to load is logged and skipped.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, HumanReadable: cfg.Log.HumanReadable})
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}

	registry, err := pluginoutadapter.NewSQLiteRegistry(cfg.DBPath, clock.SystemClock{})
	if err != nil {
		return nil, fmt.Errorf("new plugin registry: %w", err)
	}
	transport := pluginoutadapter.NewGRPCTransport(log)
	app := &App{Log: log, registry: registry, transport: transport}

	ids := id.UUID{}
	opts := []pluginservice.Option{pluginservice.WithTimeout(cfg.MessageTimeout), pluginservice.WithLogger(log)}
	tasks := pluginservice.NewTaskExtension(registry, transport, ids, opts...)
	notifications := pluginservice.NewNotificationExtension(registry, transport, ids, opts...)
	stores := metadatastore.NewStores()
	lifecycle := pluginservice.NewLifecycle(tasks, notifications, stores, log)

	if err := register(ctx, cfg, registry, transport); err != nil {
		_ = app.Close()
		return nil, err
	}
	plugins, err := registry.List(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	load(ctx, lifecycle, log, plugins)

	app.PluginCLI = plugininadapter.NewCLIHandler(pluginusecase.NewInteractor(registry, registry, transport, lifecycle, tasks, notifications, stores))
	return app, nil
}

// load announces every registered capability to the lifecycle, a few plugins
// at a time. The group only bounds concurrency: goroutines log their failure
// and return nil, so one failed load never cancels the others.
func load(ctx context.Context, lifecycle *pluginservice.Lifecycle, log *logger.Logger, plugins []plugindomain.RegisteredPlugin) {
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(loadConcurrency)
	for _, p := range plugins {
		p := p
		for _, c := range p.Capabilities {
			c := c
			eg.Go(func() error {
				res := result.NewHTTPOperationResult()
				lifecycle.PluginLoaded(egctx, p.Descriptor, c.Point, res)
				if !res.CanContinue() {
					log.WithFields(map[string]any{"plugin_id": p.Descriptor.ID, "extension": string(c.Point), "code": res.HTTPCode()}).Warn(res.Message())
				}
				return nil
			})
		}
	}
	_ = eg.Wait()
}

func register(ctx context.Context, cfg config.Config, registry *pluginoutadapter.SQLiteRegistry, transport *pluginoutadapter.GRPCTransport) error {
	exec := builtin.ExecTask{}
	if err := registry.Register(ctx, exec.Descriptor(), plugindomain.ExtensionTask, plugindomain.ContractDirect, exec); err != nil {
		return fmt.Errorf("register builtin exec task: %w", err)
	}

	for _, p := range cfg.Plugins {
		manifest := plugindomain.Manifest{ID: p.ID, Name: p.Name, Version: p.Version, Binary: p.Binary, SHA256: p.SHA256}
		for _, ext := range p.Extensions {
			manifest.Extensions = append(manifest.Extensions, plugindomain.ExtensionPoint(ext))
		}
		if err := transport.Add(manifest); err != nil {
			return err
		}
		for _, point := range manifest.Extensions {
			if err := registry.Register(ctx, manifest.Descriptor(), point, plugindomain.ContractMessage, nil); err != nil {
				return fmt.Errorf("register plugin %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

// Close stops plugin processes and releases the registry.
func (a *App) Close() error {
	a.transport.Shutdown()
	if err := a.registry.Close(); err != nil {
		return fmt.Errorf("close registry: %w", err)
	}
	return nil
}
