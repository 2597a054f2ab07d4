package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"extrt/internal/bootstrap"
	plugindto "extrt/internal/modules/plugin/dto"
	"extrt/internal/platform/config"
	"extrt/internal/ui/theme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, theme.Failure.Render("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "extrt",
		Short:         "Plugin extension runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to extrt.yaml (defaults to built-in settings in the current directory)")

	root.AddCommand(newPluginCmd(&configPath))
	root.AddCommand(newTaskCmd(&configPath))
	root.AddCommand(newNotifyCmd(&configPath))
	return root
}

func loadConfig(configPath string) (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	return config.New(wd)
}

// withApp builds the runtime for one command and always tears it down.
func withApp(ctx context.Context, configPath string, fn func(app *bootstrap.App) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	return errors.Join(fn(app), app.Close())
}

func newPluginCmd(configPath *string) *cobra.Command {
	plugin := &cobra.Command{Use: "plugin", Short: "Plugin registry operations"}
	plugin.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered plugins and their contracts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configPath, func(app *bootstrap.App) error {
				plugins, err := app.PluginCLI.ListPlugins(cmd.Context())
				if err != nil {
					return err
				}
				if len(plugins) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.Muted.Render("no plugins registered"))
					return nil
				}
				t := table.NewWriter()
				t.SetStyle(table.StyleLight)
				t.SetOutputMirror(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"PLUGIN", "NAME", "VERSION", "CAPABILITIES", "REGISTERED"})
				for _, p := range plugins {
					caps := make([]string, 0, len(p.Capabilities))
					for _, c := range p.Capabilities {
						caps = append(caps, c.Extension+"/"+c.Contract)
					}
					t.AppendRow(table.Row{p.ID, p.Name, versionOf(p.Version), strings.Join(caps, ","), p.RegisteredAt.Format(time.DateTime)})
				}
				t.Render()
				return nil
			})
		},
	})
	return plugin
}

func newTaskCmd(configPath *string) *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Run and inspect task plugins"}

	var pluginID, workdir string
	var pairs, env []string
	input := func() (plugindto.TaskInput, error) {
		if strings.TrimSpace(pluginID) == "" {
			return plugindto.TaskInput{}, fmt.Errorf("--plugin is required")
		}
		cfg, err := parsePairs("--set", pairs)
		if err != nil {
			return plugindto.TaskInput{}, err
		}
		vars, err := parsePairs("--env", env)
		if err != nil {
			return plugindto.TaskInput{}, err
		}
		if workdir == "" {
			if workdir, err = os.Getwd(); err != nil {
				return plugindto.TaskInput{}, err
			}
		}
		return plugindto.TaskInput{PluginID: pluginID, Config: cfg, WorkingDir: workdir, Env: vars}, nil
	}

	execCmd := &cobra.Command{
		Use:   "exec --plugin <id> [--set key=value]...",
		Short: "Execute a task plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := input()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *configPath, func(app *bootstrap.App) error {
				out, err := app.PluginCLI.ExecuteTask(cmd.Context(), in)
				if err != nil {
					return err
				}
				printExecution(cmd.OutOrStdout(), out)
				if !out.Success {
					return fmt.Errorf("task %s failed", out.PluginID)
				}
				return nil
			})
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate --plugin <id> [--set key=value]...",
		Short: "Validate task configuration with the plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := input()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *configPath, func(app *bootstrap.App) error {
				out, err := app.PluginCLI.ValidateTask(cmd.Context(), in)
				if err != nil {
					return err
				}
				if out.Valid {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.Success.Render("configuration is valid"))
					return nil
				}
				for _, e := range out.Errors {
					key := e.Key
					if key == "" {
						key = "-"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Key.Render(key), e.Message)
				}
				return fmt.Errorf("configuration for %s is invalid", out.PluginID)
			})
		},
	}

	for _, c := range []*cobra.Command{execCmd, validateCmd} {
		c.Flags().StringVar(&pluginID, "plugin", "", "plugin id")
		c.Flags().StringArrayVar(&pairs, "set", nil, "task configuration value as key=value")
		c.Flags().StringArrayVar(&env, "env", nil, "environment variable as KEY=value")
		c.Flags().StringVar(&workdir, "workdir", "", "working directory (defaults to the current directory)")
	}

	var infoPluginID string
	infoCmd := &cobra.Command{
		Use:   "info --plugin <id>",
		Short: "Show the configuration a task plugin declares",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(infoPluginID) == "" {
				return fmt.Errorf("--plugin is required")
			}
			return withApp(cmd.Context(), *configPath, func(app *bootstrap.App) error {
				info, err := app.PluginCLI.TaskInfo(cmd.Context(), infoPluginID)
				if err != nil {
					return err
				}
				lines := []string{
					theme.Title.Render(info.DisplayValue) + " " + theme.Muted.Render("("+info.PluginID+", "+info.Contract+")"),
				}
				for _, p := range info.Properties {
					line := theme.Key.Render(p.Key)
					if p.DisplayName != "" {
						line += " " + p.DisplayName
					}
					if p.Required {
						line += theme.Warning.Render(" required")
					}
					if p.Secure {
						line += theme.Muted.Render(" secure")
					}
					if p.DefaultValue != "" {
						line += theme.Muted.Render(" default=" + p.DefaultValue)
					}
					lines = append(lines, line)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.Box.Render(strings.Join(lines, "\n")))
				return nil
			})
		},
	}
	infoCmd.Flags().StringVar(&infoPluginID, "plugin", "", "plugin id")

	task.AddCommand(execCmd, validateCmd, infoCmd)
	return task
}

func newNotifyCmd(configPath *string) *cobra.Command {
	var pluginID, name, payload string
	notify := &cobra.Command{
		Use:   "notify --plugin <id> --name <notification>",
		Short: "Send a notification to a notification plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(pluginID) == "" || strings.TrimSpace(name) == "" {
				return fmt.Errorf("--plugin and --name are required")
			}
			body, err := parsePayload(payload)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *configPath, func(app *bootstrap.App) error {
				out, err := app.PluginCLI.Notify(cmd.Context(), plugindto.NotifyInput{PluginID: pluginID, Name: name, Payload: body})
				if err != nil {
					return err
				}
				printExecution(cmd.OutOrStdout(), out)
				if !out.Success {
					return fmt.Errorf("notification %s to %s failed", name, pluginID)
				}
				return nil
			})
		},
	}
	notify.Flags().StringVar(&pluginID, "plugin", "", "plugin id")
	notify.Flags().StringVar(&name, "name", "", "notification name, e.g. stage-status")
	notify.Flags().StringVar(&payload, "payload", "", "JSON object sent as the notification body")
	return notify
}

func printExecution(w io.Writer, out plugindto.ExecutionOutput) {
	_, _ = fmt.Fprintf(w, "%s %s\n", theme.Status(out.Success), theme.Title.Render(out.PluginID))
	for _, m := range out.Messages {
		_, _ = fmt.Fprintln(w, m)
	}
}

func parsePairs(flag string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%s must be key=value, got %q", flag, pair)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

func parsePayload(input string) (map[string]any, error) {
	if strings.TrimSpace(input) == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(input), &out); err != nil || out == nil {
		return nil, fmt.Errorf("--payload must be a JSON object")
	}
	return out, nil
}

func versionOf(v string) string {
	if v == "" {
		return "unversioned"
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return v
	}
	return "v" + parsed.String()
}
