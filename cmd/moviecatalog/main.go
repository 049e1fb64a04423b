// Command moviecatalog serves, seeds and queries the movie catalog.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/config"
	"github.com/mantonx/moviecatalog/internal/database"
	"github.com/mantonx/moviecatalog/internal/logger"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule"
	"github.com/mantonx/moviecatalog/internal/modules/modulemanager"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// configEnv names the config file when --config is not given.
const configEnv = "MOVIECATALOG_CONFIG_PATH"

var defaultConfigPaths = []string{"./moviecatalog.yaml", "./moviecatalog.yml", "./moviecatalog.json"}

// app carries state shared by every subcommand.
type app struct {
	configPath string
	manager    *config.ConfigManager
	logger     hclog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "moviecatalog",
		Short:         "Movie catalog query engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML or JSON config file (env "+configEnv+")")

	rootCmd.AddCommand(newServeCommand(a), newSeedCommand(a), newQueryCommand(a))
	return rootCmd
}

// resolveConfigPath picks the flag, then the environment, then the first
// default path that exists. An empty result means defaults and env only.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (a *app) loadConfig() error {
	a.manager = config.NewConfigManager()
	path := resolveConfigPath(a.configPath)
	if err := a.manager.LoadConfig(path); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := a.manager.GetConfig()
	a.logger = logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Color:  cfg.Logging.Color,
	})
	if path != "" {
		a.logger.Debug("configuration file in use", "path", path)
	}
	return nil
}

func (a *app) config() *config.Config {
	return a.manager.GetConfig()
}

// openCatalog connects to the database and loads the catalog module.
func (a *app) openCatalog() (*gorm.DB, *modulemanager.ModuleRegistry, *catalogmodule.Module, error) {
	cfg := a.config()
	db, err := database.Initialize(cfg.Database, a.logger)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog := catalogmodule.NewModule(db, cfg, a.logger)
	registry := modulemanager.NewRegistry(a.logger)
	registry.Register(catalog)
	if err := registry.LoadAll(db); err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	return db, registry, catalog, nil
}

// parsePairs turns repeated k=v flags into a map. Repeating a key collects
// its values into a list, matching repeated query-string keys.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		switch existing := out[key].(type) {
		case nil:
			out[key] = value
		case string:
			out[key] = []any{existing, value}
		case []any:
			out[key] = append(existing, value)
		}
	}
	return out, nil
}
