package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"tourbook/config"
	"tourbook/logger"
)

const serviceName = "tourbook"

var (
	configPath string
	cfg        config.Config
	log        *slog.Logger
)

func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Tour package storefront backend",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			log = newLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")

	root.AddCommand(serveCmd(), migrateCmd(), priceCmd(), keysCmd())
	return root
}

func newLogger(cfg config.Config, out io.Writer) *slog.Logger {
	return logger.New(logger.Options{
		Service: serviceName,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  out,
	})
}
