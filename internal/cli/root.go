// Package cli wires the fitdesk commands: the chat widget, the headless
// watch stream, and the development API server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitdeskhq/fitdesk/internal/config"
	"github.com/fitdeskhq/fitdesk/internal/logging"
	"github.com/fitdeskhq/fitdesk/internal/support/api"
	"github.com/fitdeskhq/fitdesk/internal/support/engine"
)

// Execute runs the fitdesk CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fitdesk",
		Short:         "Staff support console for the fitness back office",
		Long:          "fitdesk mirrors support conversations from the back-office API and keeps them consistent by polling.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/fitdesk/config.yaml)")
	cmd.PersistentFlags().String("api-url", "", "back-office API base URL")
	cmd.PersistentFlags().String("token", "", "bearer token for the back-office API")
	cmd.PersistentFlags().String("log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "override logging format (json, console)")
	cmd.PersistentFlags().Duration("poll-interval", 0, "override conversation poll interval")

	cmd.AddCommand(
		newChatCmd(),
		newWatchCmd(),
		newMockAPICmd(),
	)

	return cmd
}

// loadConfig resolves configuration with flag overrides applied on top and
// initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		cfg.API.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.API.Token = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if v, _ := cmd.Flags().GetDuration("poll-interval"); v > 0 {
		cfg.Sync.PollInterval = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, nil
}

// buildEngine assembles the HTTP client and sync engine from config.
func buildEngine(cfg *config.Config) (*engine.Engine, error) {
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required (set --api-url or FITDESK_API_BASE_URL)")
	}
	client, err := api.NewHTTPClient(api.HTTPConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{
		Client:         client,
		PollInterval:   cfg.Sync.PollInterval,
		RequestTimeout: cfg.API.Timeout,
		UpdateBuffer:   cfg.Sync.UpdateBuffer,
		Logger:         logging.Component("engine"),
	})
}
