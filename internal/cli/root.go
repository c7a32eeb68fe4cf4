package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	backendURL string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "prepost-poll",
		Short:        "Pre/post activity poll front end",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&backendURL, "backend", os.Getenv("BACKEND_URL"), "poll backend base URL (overrides config)")
	cmd.AddCommand(NewServeCmd(&configPath, &port, &backendURL))
	cmd.AddCommand(NewSchemaCmd(&configPath, &backendURL))
	cmd.AddCommand(NewAnalyticsCmd(&configPath, &backendURL))
	return cmd
}
