package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netview/pkg/config"
	"github.com/dd0wney/cluso-netview/pkg/logging"
)

var version = "0.3.0"

var (
	configPath string
	logLevel   string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netview",
		Short: "netview: watch a neural network evolve",
		Long: brand.Sprint("netview") + " is a live, force-directed view of an evolving network\n" +
			subtle.Sprint("Nodes are coloured by bias, links by weight: red positive, blue negative"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("netview {{ .Version }}\n")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml, .toml or .ini)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(
		tuiCmd(),
		serveCmd(),
		renderCmd(),
		versionCmd(),
	)

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		bad.Fprintf(os.Stderr, "  %v\n", err)
		return err
	})
	return cmd
}

// loadConfig reads --config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		bad.Fprintf(os.Stderr, "  %v\n", err)
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			bad.Fprintf(os.Stderr, "  %v\n", err)
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	logger := logging.NewJSONLogger(w, cfg.Level())
	logging.SetDefaultLogger(logger)
	return logger
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", brand.Sprint("netview"), version)
		},
	}
}
