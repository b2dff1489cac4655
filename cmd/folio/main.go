package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kevinmichaelchen/folio/internal/config"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Portfolio site helpers: skills, GitHub projects and the mentor chat",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := logger.SetLogLevel(cfg.LogLevel); err != nil {
				return err
			}
			logger.SetLogFormat(cfg.LogFormat)
			return nil
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	root.PersistentFlags().String("skills", config.DefaultSkillsPath, "Path to the skills catalog (JSON or YAML)")
	_ = config.V.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = config.V.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))
	_ = config.V.BindPFlag("skills_path", root.PersistentFlags().Lookup("skills"))

	root.AddCommand(serveCmd(), skillsCmd(), imageCmd(), reposCmd(), chatCmd(), activeCmd())
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
