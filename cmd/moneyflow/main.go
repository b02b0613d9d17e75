package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"moneyflow/internal/shared/config"
	"moneyflow/internal/shared/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "moneyflow",
		Short: "Bank statement import and reconciliation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.Log.Level); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(
		a.newMigrateCommand(),
		a.newImportCommand(),
		a.newRecalculateCommand(),
		a.newRulesCommand(),
		a.newSecretCommand(),
	)

	return rootCmd
}

// withDeps builds the dependency graph for one command run and releases it
// afterwards.
func (a *app) withDeps(cmd *cobra.Command, fn func(ctx context.Context, d *Dependencies) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := NewDependencies(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer deps.Close(context.WithoutCancel(ctx))

	return fn(ctx, deps)
}
