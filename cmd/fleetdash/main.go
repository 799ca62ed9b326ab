package main

import (
	"os"

	"github.com/spf13/cobra"

	"fleetdash/config"
	"fleetdash/internal/logs"
	"fleetdash/server"
)

func main() {
	var configFile string
	var cfg *config.Config
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "fleetdash",
		Short:         "Operator dashboard for a Raspberry Pi signage fleet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			loaded, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded
			opts.cfg = cfg
			if c.Name() != "serve" {
				// commands print their own output; keep the log quiet
				logs.Init(logs.Options{Level: "warn", Format: cfg.Logging.Format, File: cfg.Logging.File})
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.yes, "yes", "y", false, "Answer yes to confirmation prompts")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(c *cobra.Command, args []string) error {
			app := &server.App{}
			if err := app.Initialize(cfg); err != nil {
				return err
			}
			return app.Run()
		},
	}

	rootCmd.AddCommand(sessionCommands(opts)...)
	rootCmd.AddCommand(
		serveCmd,
		dashboardCommand(opts),
		devicesCommand(opts),
		videosCommand(opts),
		brandsCommand(opts),
		usersCommand(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		logs.Logger.Error(err)
		os.Exit(1)
	}
}
